package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/metrics"
)

type Command string

const (
	CommandShare            Command = "sharemsg"
	CommandBroadcast        Command = "broadcast"
	CommandShareForward     Command = "sharemsgv2"
	CommandBroadcastForward Command = "broadcastv2"
)

func (c Command) Feature() domain.Feature {
	if c == CommandBroadcast || c == CommandBroadcastForward {
		return domain.FeatureBroadcast
	}
	return domain.FeatureShare
}

// Forwarding commands forward the replied-to message instead of copying its content.
func (c Command) Forwarding() bool {
	return c == CommandShareForward || c == CommandBroadcastForward
}

// CooldownGated reports whether the command passes through the cooldown gate.
func (c Command) CooldownGated() bool {
	return c == CommandShare || c == CommandBroadcast
}

func (c Command) mode() string {
	if c.Forwarding() {
		return "forward"
	}
	return "resend"
}

// Permitted applies the per-command privilege rule.
func (c Command) Permitted(a Actor) bool {
	switch c {
	case CommandShare:
		return a.IsAnyOwner() || a.Premium || a.GroupCount >= config.ShareGroupFallback
	case CommandShareForward:
		return a.IsAnyOwner() || a.Premium
	case CommandBroadcast, CommandBroadcastForward:
		return a.IsAnyOwner()
	default:
		return false
	}
}

// Courier delivers one message to one chat.
type Courier interface {
	Copy(ctx context.Context, chatID int64, src *models.Message, footer string) error
	Forward(ctx context.Context, chatID, fromChatID int64, messageID int) error
	SendText(ctx context.Context, chatID int64, text string) error
}

// Tally counts delivery outcomes for one run.
type Tally struct {
	Total   int
	Success int
	Failure int
}

// Delivery attempts one recipient.
type Delivery func(ctx context.Context, target int64) error

// Dispatcher visits every target once, strictly one at a time.
type Dispatcher struct {
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *metrics.Metrics
}

func NewDispatcher(m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{sleep: sleepContext, metrics: m}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run folds deliver over targets. A failing recipient is counted and the
// run continues. pace is waited between consecutive sends.
func (d *Dispatcher) Run(ctx context.Context, runID uuid.UUID, mode string, targets []int64, pace time.Duration, deliver Delivery) Tally {
	tally := Tally{Total: len(targets)}
	for i, target := range targets {
		if i > 0 && pace > 0 {
			if err := d.sleep(ctx, pace); err != nil {
				slog.Warn("dispatch pacing interrupted", "run_id", runID, "error", err)
			}
		}

		if err := deliver(ctx, target); err != nil {
			tally.Failure++
			d.metrics.RecordDelivery(mode, false)
			slog.Warn("dispatch delivery failed", "run_id", runID, "target", target, "error", err)
			continue
		}
		tally.Success++
		d.metrics.RecordDelivery(mode, true)
	}
	return tally
}

// DispatchRequest is one invocation of a mass dispatch command.
type DispatchRequest struct {
	Command Command
	ActorID int64
	ChatID  int64
	Reply   *models.Message
}

// DispatchPlan is a validated request with its captured target snapshot.
type DispatchPlan struct {
	RunID   uuid.UUID
	Request DispatchRequest
	Targets []int64
	Pace    time.Duration
}

type MassDispatchService struct {
	store      DocumentStore
	policy     *AccessPolicy
	cooldown   *CooldownGate
	dispatcher *Dispatcher
	courier    Courier
	footer     string
	metrics    *metrics.Metrics
}

func NewMassDispatchService(
	store DocumentStore,
	policy *AccessPolicy,
	cooldown *CooldownGate,
	dispatcher *Dispatcher,
	courier Courier,
	footer string,
	m *metrics.Metrics,
) *MassDispatchService {
	return &MassDispatchService{
		store:      store,
		policy:     policy,
		cooldown:   cooldown,
		dispatcher: dispatcher,
		courier:    courier,
		footer:     footer,
		metrics:    m,
	}
}

// Prepare runs the gates in order (privilege, cooldown, reply target),
// stamps the cooldown and snapshots the recipients, all in one document
// mutation. Nothing is written when a gate fails.
func (s *MassDispatchService) Prepare(ctx context.Context, req DispatchRequest) (*DispatchPlan, error) {
	plan := &DispatchPlan{RunID: uuid.New(), Request: req}
	feature := req.Command.Feature()

	err := s.store.Update(ctx, func(doc *domain.Document) error {
		actor := s.policy.Actor(doc, req.ActorID)
		if err := s.policy.Require(actor, domain.TierUser); err != nil {
			return err
		}
		if !req.Command.Permitted(actor) {
			return domain.ErrAccessDenied
		}
		if req.Command.CooldownGated() {
			if err := s.cooldown.Check(doc, actor, feature); err != nil {
				return err
			}
		}
		if req.Reply == nil {
			return domain.ErrNoReply
		}
		if req.Command.CooldownGated() {
			s.cooldown.Stamp(doc, actor, feature)
		}

		plan.Targets = doc.Recipients(feature)
		plan.Pace = config.ResendPace
		if req.Command.Forwarding() {
			plan.Pace = config.ForwardPace
			if actor.MainOwner {
				plan.Pace = 0
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(plan.Targets) == 0 {
		return nil, domain.ErrNoTargets
	}
	return plan, nil
}

// Run announces the run, delivers to every target and reports the tally
// to the invoking chat.
func (s *MassDispatchService) Run(ctx context.Context, plan *DispatchPlan) Tally {
	req := plan.Request
	log := slog.With("run_id", plan.RunID, "command", string(req.Command), "actor_id", req.ActorID)
	log.Info("dispatch started", "targets", len(plan.Targets), "pace", plan.Pace)

	if err := s.courier.SendText(ctx, req.ChatID, StartedText(req.Command, len(plan.Targets))); err != nil {
		log.Warn("send dispatch notice", "error", err)
	}

	tally := s.dispatcher.Run(ctx, plan.RunID, req.Command.mode(), plan.Targets, plan.Pace, s.delivery(req))
	s.metrics.RecordDispatchRun(string(req.Command))
	log.Info("dispatch finished", "total", tally.Total, "success", tally.Success, "failure", tally.Failure)

	if err := s.courier.SendText(ctx, req.ChatID, SummaryText(req.Command, tally)); err != nil {
		log.Error("send dispatch summary", "error", err)
	}
	return tally
}

func (s *MassDispatchService) delivery(req DispatchRequest) Delivery {
	if req.Command.Forwarding() {
		return func(ctx context.Context, target int64) error {
			return s.courier.Forward(ctx, target, req.ChatID, req.Reply.ID)
		}
	}

	footer := ""
	if req.Command.Feature() == domain.FeatureShare {
		footer = s.footer
	}
	return func(ctx context.Context, target int64) error {
		return s.courier.Copy(ctx, target, req.Reply, footer)
	}
}

func recipientNoun(c Command) string {
	if c.Feature() == domain.FeatureBroadcast {
		return "users"
	}
	return "groups"
}

func StartedText(c Command, total int) string {
	return fmt.Sprintf("⏳ Running /%s to *%d* %s...", c, total, recipientNoun(c))
}

func SummaryText(c Command, t Tally) string {
	return fmt.Sprintf("✔️ /%s finished!\n📊 Result:\n- Total %s: %d\n- ✔️ Success: %d\n- ❌ Failed: %d",
		c, recipientNoun(c), t.Total, t.Success, t.Failure)
}
