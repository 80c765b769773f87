package models

import (
	"fmt"
	"strings"
	"time"

	"pondok-keuangan/internal/apperr"
)

// Action is an event applied to a document's review state.
type Action string

const (
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionRequestRevision Action = "request_revision"
)

// NextStatus is the transition table of the review state machine. The empty
// status stands for a record that does not exist yet.
//
//	(new)    --submit-->  diajukan
//	revisi   --submit-->  diajukan
//	diajukan --approve--> diterima
//	diajukan --request_revision--> revisi
//
// diterima is terminal.
func NextStatus(from DocumentStatus, action Action) (DocumentStatus, error) {
	switch action {
	case ActionSubmit:
		switch from {
		case "", StatusRevisi:
			return StatusDiajukan, nil
		case StatusDiajukan, StatusDiterima:
			return from, apperr.InvalidTransition("document_already_submitted",
				fmt.Sprintf("document is %s and cannot be submitted again", from))
		}
	case ActionApprove, ActionRequestRevision:
		switch from {
		case StatusDiajukan:
			if action == ActionApprove {
				return StatusDiterima, nil
			}
			return StatusRevisi, nil
		case StatusDiterima, StatusRevisi, "":
			return from, apperr.InvalidTransition("document_not_pending",
				fmt.Sprintf("cannot %s a document that is %s", strings.ReplaceAll(string(action), "_", " "), statusLabel(from)))
		}
	default:
		return from, apperr.InvalidTransition("unknown_action", fmt.Sprintf("unknown action %q", action))
	}
	return from, apperr.InvalidTransition("unknown_status", fmt.Sprintf("unknown status %q", from))
}

func statusLabel(s DocumentStatus) string {
	if s == "" {
		return "not submitted"
	}
	return string(s)
}

// Submit moves a new or revisi document to diajukan, stamps submitted_at and
// clears the previous review outcome.
func (d *Dokumen) Submit(now time.Time) error {
	next, err := NextStatus(d.Status, ActionSubmit)
	if err != nil {
		return err
	}
	d.Status = next
	d.SubmittedAt = now
	d.AcceptedAt = nil
	d.PesanRevisi = nil
	return nil
}

// Approve moves a diajukan document to diterima and stamps accepted_at.
func (d *Dokumen) Approve(now time.Time) error {
	next, err := NextStatus(d.Status, ActionApprove)
	if err != nil {
		return err
	}
	at := now
	d.Status = next
	d.AcceptedAt = &at
	d.PesanRevisi = nil
	return nil
}

// RequestRevision moves a diajukan document to revisi with a mandatory
// message. The document is left untouched on any error.
func (d *Dokumen) RequestRevision(message string) error {
	next, err := NextStatus(d.Status, ActionRequestRevision)
	if err != nil {
		return err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return apperr.Validation("pesan_required", "revision message is required",
			apperr.FieldError{Field: "pesan", Error: "required"})
	}
	d.Status = next
	d.PesanRevisi = &message
	d.AcceptedAt = nil
	return nil
}
