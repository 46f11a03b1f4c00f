package services

import "strings"

// EventAction is what a provider event means for the local subscription row
type EventAction string

const (
	ActionUnknown  EventAction = "unknown"
	ActionActivate EventAction = "activate"
	ActionCancel   EventAction = "cancel"
	ActionIgnore   EventAction = "ignore"
)

// eventCatalog maps documented Cakto webhook event types
var eventCatalog = map[string]EventAction{
	"purchase_approved":    ActionActivate,
	"subscription_created": ActionActivate,
	"subscription_renewed": ActionActivate,

	"refund":                       ActionCancel,
	"chargeback":                   ActionCancel,
	"subscription_canceled":        ActionCancel,
	"subscription_cancelled":       ActionCancel,
	"subscription_renewal_refused": ActionCancel,

	"purchase_refused":     ActionIgnore,
	"boleto_gerado":        ActionIgnore,
	"pix_gerado":           ActionIgnore,
	"picpay_gerado":        ActionIgnore,
	"initiate_checkout":    ActionIgnore,
	"checkout_abandonment": ActionIgnore,
}

// statusCatalog is consulted when the event type itself is not catalogued
var statusCatalog = map[string]EventAction{
	"paid":      ActionActivate,
	"approved":  ActionActivate,
	"active":    ActionActivate,
	"ativa":     ActionActivate,
	"aprovado":  ActionActivate,
	"pago":      ActionActivate,
	"completed": ActionActivate,
	"complete":  ActionActivate,

	"refunded":    ActionCancel,
	"reembolsado": ActionCancel,
	"canceled":    ActionCancel,
	"cancelled":   ActionCancel,
	"cancelado":   ActionCancel,
	"cancelada":   ActionCancel,
	"chargedback": ActionCancel,
	"chargeback":  ActionCancel,

	"pending":         ActionIgnore,
	"waiting_payment": ActionIgnore,
	"refused":         ActionIgnore,
	"recusado":        ActionIgnore,
}

// ClassifyEvent decides what an event does. A cancellation from either the event
// type or the status wins; otherwise the event type decides before the status does.
func ClassifyEvent(eventType, status string) EventAction {
	byEvent, eventKnown := eventCatalog[strings.ToLower(strings.TrimSpace(eventType))]
	byStatus, statusKnown := statusCatalog[strings.ToLower(strings.TrimSpace(status))]

	if byEvent == ActionCancel || byStatus == ActionCancel {
		return ActionCancel
	}
	if eventKnown {
		return byEvent
	}
	if statusKnown {
		return byStatus
	}
	return ActionUnknown
}
