// Package service orchestrates the message intake pipeline: validate,
// persist, broadcast, auto-reply, persist reply, broadcast reply, in
// that fixed order.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"supportdesk/internal/autoreply"
	"supportdesk/internal/classifier"
	"supportdesk/internal/model"
	"supportdesk/internal/store"
)

// ErrInvalidInput indicates a submission missing its sender identity or
// message text. Nothing is persisted or broadcast.
var ErrInvalidInput = errors.New("service: missing sender or text")

// storeTimeout bounds each store call so a dead backend surfaces as
// unavailable instead of hanging a pipeline run.
const storeTimeout = 5 * time.Second

// Broadcaster pushes a stored message to connected viewers. hub.Hub
// implements it; tests substitute a fake.
type Broadcaster interface {
	Publish(msg model.Message)
}

// Service holds the pipeline's dependencies, constructed once at startup.
type Service struct {
	store store.Store
	hub   Broadcaster
}

// New creates a Service over the given store and broadcaster.
func New(st store.Store, hub Broadcaster) *Service {
	return &Service{store: st, hub: hub}
}

// Inbound is one message submission before normalization. Both the
// minimal form (sender/text) and the customer form
// (customer_id/customer_name/subject/body) decode into it.
type Inbound struct {
	Sender       string `json:"sender"`
	Text         string `json:"text"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

// normalize maps either submission form onto the Message shape.
func (in Inbound) normalize() model.Message {
	msg := model.Message{
		Sender:       in.Sender,
		Text:         in.Text,
		Subject:      in.Subject,
		CustomerName: in.CustomerName,
		CustomerID:   in.CustomerID,
	}
	if msg.Text == "" {
		msg.Text = in.Body
	}
	if msg.Sender == "" {
		msg.Sender = in.CustomerID
	}
	return msg
}

// Result reports the outcome of one pipeline run. The original message
// and the auto-reply succeed or fail independently: ReplyErr non-nil
// with a nil error from SendMessage means partial success (original
// persisted and broadcast, reply lost).
type Result struct {
	Message  model.Message
	Reply    model.Message
	ReplyErr error
}

// SendMessage runs the intake pipeline for one inbound submission.
// 固定順序: validate → persist original → broadcast original →
// auto-reply → persist reply → broadcast reply
func (s *Service) SendMessage(ctx context.Context, in Inbound) (Result, error) {
	msg := in.normalize()
	if strings.TrimSpace(msg.Sender) == "" || strings.TrimSpace(msg.Text) == "" {
		return Result{}, ErrInvalidInput
	}

	stored, err := s.insert(ctx, msg)
	if err != nil {
		// 永続化に失敗したメッセージには返信を生成しない
		return Result{}, err
	}
	// The original is broadcast regardless of whether the reply steps succeed.
	s.publish(stored)

	reply := autoreply.Reply(stored.Text)
	storedReply, err := s.insert(ctx, reply)
	if err != nil {
		// No compensating transaction: report partial success instead of
		// rolling back the original insert/broadcast.
		log.Printf("[pipeline] ❌ Auto-reply not persisted: %v", err)
		return Result{Message: stored, ReplyErr: err}, nil
	}
	s.publish(storedReply)

	return Result{Message: stored, Reply: storedReply}, nil
}

// ListMessages returns the full history ordered by timestamp ascending,
// with the urgency flag recomputed for display.
func (s *Service) ListMessages(ctx context.Context) ([]model.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	msgList, err := s.store.List(ctx)
	if err != nil {
		return nil, asUnavailable(err)
	}
	for i := range msgList {
		msgList[i].Urgent = classifier.IsUrgent(msgList[i].Text)
	}
	return msgList, nil
}

// Ping reports whether the store backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return asUnavailable(err)
	}
	return nil
}

// insert persists one message under the store timeout.
func (s *Service) insert(ctx context.Context, msg model.Message) (model.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	stored, err := s.store.Insert(ctx, msg)
	if err != nil {
		return model.Message{}, asUnavailable(err)
	}
	return stored, nil
}

// publish annotates urgency at broadcast time and hands the message to the hub.
func (s *Service) publish(msg model.Message) {
	msg.Urgent = classifier.IsUrgent(msg.Text)
	s.hub.Publish(msg)
}

// asUnavailable maps a timed-out store call onto ErrUnavailable so the
// caller sees one failure mode for an unreachable backend.
func asUnavailable(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
