package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/telegram"
)

type membershipChange int

const (
	membershipNone membershipChange = iota
	membershipJoined
	membershipLeft
)

// classifyMembership maps the bot's new status in a group to a join or leave.
// Private chats and channels are ignored.
func classifyMembership(ev *models.ChatMemberUpdated) membershipChange {
	if ev.Chat.Type != models.ChatTypeGroup && ev.Chat.Type != models.ChatTypeSupergroup {
		return membershipNone
	}
	switch ev.NewChatMember.Type {
	case models.ChatMemberTypeMember, models.ChatMemberTypeAdministrator:
		return membershipJoined
	case models.ChatMemberTypeLeft, models.ChatMemberTypeBanned, models.ChatMemberTypeRestricted:
		return membershipLeft
	default:
		return membershipNone
	}
}

func membershipEvent(ev *models.ChatMemberUpdated) domain.MembershipEvent {
	return domain.MembershipEvent{
		ChatID:        ev.Chat.ID,
		ChatTitle:     ev.Chat.Title,
		ActorID:       ev.From.ID,
		ActorName:     displayName(&ev.From),
		ActorUsername: ev.From.Username,
	}
}

func (h *Handler) handleMembership(ctx context.Context, ev *models.ChatMemberUpdated) {
	switch classifyMembership(ev) {
	case membershipJoined:
		h.onBotAdded(ctx, membershipEvent(ev))
	case membershipLeft:
		h.onBotRemoved(ctx, membershipEvent(ev))
	}
}

func (h *Handler) onBotAdded(ctx context.Context, ev domain.MembershipEvent) {
	res, err := h.entitlements.OnBotAdded(ctx, ev)
	if err != nil {
		slog.Error("handle bot added", "error", err, "chat_id", ev.ChatID)
		h.notifier.LogError(err, "bot added to group")
		return
	}

	title := telegram.Escape(ev.ChatTitle)
	switch res.Outcome {
	case domain.JoinAlreadyTracked:
		return
	case domain.JoinTooSmall:
		h.notifier.User(ctx, ev.ActorID, fmt.Sprintf(
			"⚠️ The group <b>%s</b> only has <b>%d</b> members.\n❌ At least <b>%d</b> members are needed to earn Premium.",
			title, res.MemberCount, config.MinGroupMembers))
		return
	case domain.JoinPermanent:
		h.notifier.User(ctx, ev.ActorID, fmt.Sprintf(
			"🎉 You added the bot to <b>%d</b> groups!\n✨ Your Premium is now <b>PERMANENT</b>.", res.GroupCount))
	case domain.JoinExtended:
		h.notifier.User(ctx, ev.ActorID, fmt.Sprintf(
			"🎉 Thanks for adding the bot to <b>%s</b>!\n✨ Premium extended by <b>2 days</b>, active until <b>%s</b>.",
			title, res.Expiry.Time().UTC().Format("2006-01-02 15:04 MST")))
	}

	h.notifier.Owner(ctx, membershipReport("➕ Bot added to a group", "Added by", ev, res.UserID, res.MemberCount, res.GroupCount))
	h.sendOwnerBackup(ctx)
}

func (h *Handler) onBotRemoved(ctx context.Context, ev domain.MembershipEvent) {
	res, err := h.entitlements.OnBotRemoved(ctx, ev)
	if err != nil {
		slog.Error("handle bot removed", "error", err, "chat_id", ev.ChatID)
		h.notifier.LogError(err, "bot removed from group")
		return
	}
	if !res.Tracked {
		return
	}

	if res.Revoked {
		h.notifier.User(ctx, res.UserID,
			"❌ The bot was removed from one of your groups.\n✨ Your Premium access has been revoked.")
	}

	h.notifier.Owner(ctx, membershipReport("➖ Bot removed from a group", "Removed by", ev, res.UserID, res.MemberCount, res.GroupCount))
	h.sendOwnerBackup(ctx)
}

// membershipReport is the owner notification for a join or leave. ev's actor
// is labelled with actorLabel; creditedID is the user whose group count changed.
func membershipReport(title, actorLabel string, ev domain.MembershipEvent, creditedID int64, members, groups int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n\n", title)
	fmt.Fprintf(&sb, "👤 %s: %s\n", actorLabel, telegram.UserLink(ev.ActorID, ev.ActorName))
	if ev.ActorUsername != "" {
		fmt.Fprintf(&sb, "🔗 Username: @%s\n", telegram.Escape(ev.ActorUsername))
	}
	fmt.Fprintf(&sb, "🆔 User ID: <code>%d</code>\n", ev.ActorID)
	if creditedID != ev.ActorID {
		fmt.Fprintf(&sb, "🏷 Credited to: <code>%d</code>\n", creditedID)
	}
	fmt.Fprintf(&sb, "👥 Group: <b>%s</b>\n", telegram.Escape(ev.ChatTitle))
	fmt.Fprintf(&sb, "🆔 Group ID: <code>%d</code>\n", ev.ChatID)
	fmt.Fprintf(&sb, "📊 Groups credited: <b>%d</b>\n", groups)
	fmt.Fprintf(&sb, "👪 Members: <b>%d</b>", members)
	return sb.String()
}

// sendOwnerBackup writes a backup and forwards it to the main owner.
func (h *Handler) sendOwnerBackup(ctx context.Context) {
	backup, err := h.backups.Create(ctx)
	if err != nil {
		slog.Error("membership backup", "error", err)
		return
	}
	h.notifier.OwnerBackup(ctx, backup.Data)
}
