package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
)

// Reply keyboard labels.
const (
	LabelShareMenu    = "⚙️ Share Menu"
	LabelFreePlan     = "🔥 Free Plan"
	LabelOwnerMenu    = "👑 Owner Menu"
	LabelContactOwner = "📞 Contact Owner"
	LabelToolsMenu    = "🛠️ Tools Menu"
	LabelChatOwner    = "💬 Chat with Owner"
	LabelBack         = "🔙 Back"
	LabelCancel       = "❌ Cancel"
)

// menuLabels are routed to handleMenuButton.
var menuLabels = []string{
	LabelShareMenu,
	LabelFreePlan,
	LabelOwnerMenu,
	LabelContactOwner,
	LabelToolsMenu,
	LabelBack,
}

const (
	textMainOwnerOnly = "❌ This command is for the main owner only."
	textBlacklisted   = "🚫 You are blocked from using this bot."
)

func mainKeyboard(a service.Actor) *models.ReplyKeyboardMarkup {
	rows := [][]string{{LabelShareMenu, LabelFreePlan}}
	if a.MainOwner {
		rows = append(rows, []string{LabelOwnerMenu, LabelToolsMenu})
	}
	rows = append(rows, []string{LabelContactOwner, LabelChatOwner})
	return telegram.ReplyKeyboard(rows...)
}

func backKeyboard() *models.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboard([]string{LabelBack})
}

func cancelKeyboard() *models.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboard([]string{LabelCancel})
}

// header is the block shown at the top of every menu caption.
func (h *Handler) header(ctx context.Context) string {
	stats := h.admin.Stats(ctx)

	var sb strings.Builder
	sb.WriteString("<b>🤖 Jaseb Bot</b>")
	if h.cfg.Version != "" {
		fmt.Fprintf(&sb, " <i>v%s</i>", telegram.Escape(h.cfg.Version))
	}
	sb.WriteString("\n")
	if h.cfg.Developer != "" {
		fmt.Fprintf(&sb, "👨‍💻 Author: @%s\n", telegram.Escape(h.cfg.Developer))
	}
	fmt.Fprintf(&sb, "👥 Groups: <b>%d</b>\n", stats.Groups)
	fmt.Fprintf(&sb, "👤 Users: <b>%d</b>\n", stats.Users)
	if h.cfg.ChannelURL != "" {
		fmt.Fprintf(&sb, "📣 Channel: <a href=\"%s\">join</a>\n", telegram.Escape(h.cfg.ChannelURL))
	}
	fmt.Fprintf(&sb, "⏱ Uptime: %s\n", formatUptime(h.now().Sub(h.startedAt)))
	return sb.String()
}

func (h *Handler) mainCaption(ctx context.Context, a service.Actor) string {
	var sb strings.Builder
	sb.WriteString(h.header(ctx))
	sb.WriteString("\n")
	switch {
	case a.MainOwner:
		sb.WriteString("👑 Status: <b>Main owner</b>")
	case a.DelegatedOwner:
		sb.WriteString("🛡 Status: <b>Owner</b>")
	case a.Premium:
		sb.WriteString("✨ Status: <b>Premium</b>")
	default:
		sb.WriteString("👤 Status: <b>Free</b>")
	}
	fmt.Fprintf(&sb, "\n📌 Your groups: <b>%d</b>\n\nPick a menu below.", a.GroupCount)
	return sb.String()
}

func shareMenuCaption() string {
	return "<b>⚙️ Share Menu</b>\n\n" +
		"Reply to the message you want to send, then use:\n\n" +
		"• /sharemsg - copy it to every group\n" +
		"• /sharemsgv2 - forward it to every group (premium)\n" +
		"• /broadcast - copy it to every user (owner)\n" +
		"• /broadcastv2 - forward it to every user (owner)"
}

func freePlanCaption() string {
	return "<b>🔥 Free Plan</b>\n\n" +
		"Add the bot to groups with at least <b>20</b> members.\n\n" +
		"• Every group adds <b>2 days</b> of Premium\n" +
		"• <b>2</b> groups unlock /sharemsg\n" +
		"• <b>10</b> groups make Premium permanent\n\n" +
		"Removing the bot from a group may revoke Premium."
}

func ownerMenuCaption() string {
	return "<b>👑 Owner Menu</b>\n\n" +
		"• /addownjs &lt;id&gt; - add an owner\n" +
		"• /delownjs &lt;id&gt; - remove an owner\n" +
		"• /listownjs - list owners\n" +
		"• /addakses &lt;id&gt; &lt;n&gt;d|h - grant Premium\n" +
		"• /delakses &lt;id&gt; - revoke Premium\n" +
		"• /listakses - list Premium users\n" +
		"• /addbl &lt;id&gt; - blacklist a user\n" +
		"• /delbl &lt;id&gt; - unblacklist a user\n" +
		"• /listbl - list the blacklist"
}

func toolsMenuCaption() string {
	return "<b>🛠️ Tools Menu</b>\n\n" +
		"• /setjeda [minutes] - show or set the cooldown\n" +
		"• /cekid - show your Telegram ID card\n" +
		"• /backup - download the data file\n" +
		"• /ping - host and uptime status"
}

func (h *Handler) contactCaption() string {
	if h.cfg.Developer == "" {
		return "<b>📞 Contact Owner</b>\n\nUse 💬 Chat with Owner to send a message."
	}
	return fmt.Sprintf("<b>📞 Contact Owner</b>\n\nOwner: @%s", telegram.Escape(h.cfg.Developer))
}

// showMainMenu replaces the chat's menu with the main menu for a.
func (h *Handler) showMainMenu(ctx context.Context, chatID int64, a service.Actor) {
	if err := h.menus.Replace(ctx, chatID, h.mainCaption(ctx, a), mainKeyboard(a)); err != nil {
		slog.Error("show main menu", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) showSubMenu(ctx context.Context, chatID int64, caption string) {
	if err := h.menus.Replace(ctx, chatID, h.header(ctx)+"\n"+caption, backKeyboard()); err != nil {
		slog.Error("show sub menu", "error", err, "chat_id", chatID)
	}
}

// handleMenuButton routes reply keyboard labels in private chats.
func (h *Handler) handleMenuButton(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	// A connected user's labels are just messages for the owner.
	if _, ok := h.relay.Session(msg.From.ID); ok {
		h.handleSessionMessage(ctx, msg)
		return
	}

	actor := h.actor(ctx, msg)
	chatID := msg.Chat.ID
	defer h.deleteMessage(ctx, chatID, msg.ID)

	switch msg.Text {
	case LabelShareMenu:
		h.showSubMenu(ctx, chatID, shareMenuCaption())
	case LabelFreePlan:
		h.showSubMenu(ctx, chatID, freePlanCaption())
	case LabelContactOwner:
		h.showSubMenu(ctx, chatID, h.contactCaption())
	case LabelOwnerMenu, LabelToolsMenu:
		if !actor.MainOwner {
			h.reply(ctx, chatID, textMainOwnerOnly)
			return
		}
		if msg.Text == LabelOwnerMenu {
			h.showSubMenu(ctx, chatID, ownerMenuCaption())
		} else {
			h.showSubMenu(ctx, chatID, toolsMenuCaption())
		}
	case LabelBack:
		h.showMainMenu(ctx, chatID, actor)
	}
}
