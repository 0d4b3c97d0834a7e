package handler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/middleware"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
)

// Register registers all command, menu and callback handlers on the bot instance.
func (h *Handler) Register(b *bot.Bot) {
	// Commands
	b.RegisterHandlerMatchFunc(matchCommand("start"), h.handleStart)
	b.RegisterHandlerMatchFunc(matchCommand("sharemsg"), h.handleDispatch(service.CommandShare))
	b.RegisterHandlerMatchFunc(matchCommand("broadcast"), h.handleDispatch(service.CommandBroadcast))
	b.RegisterHandlerMatchFunc(matchCommand("sharemsgv2"), h.handleDispatch(service.CommandShareForward))
	b.RegisterHandlerMatchFunc(matchCommand("broadcastv2"), h.handleDispatch(service.CommandBroadcastForward))
	b.RegisterHandlerMatchFunc(matchCommand("addownjs"), h.handleAddOwner)
	b.RegisterHandlerMatchFunc(matchCommand("delownjs"), h.handleDelOwner)
	b.RegisterHandlerMatchFunc(matchCommand("listownjs"), h.handleListOwners)
	b.RegisterHandlerMatchFunc(matchCommand("addakses"), h.handleAddPremium)
	b.RegisterHandlerMatchFunc(matchCommand("delakses"), h.handleDelPremium)
	b.RegisterHandlerMatchFunc(matchCommand("listakses"), h.handleListPremium)
	b.RegisterHandlerMatchFunc(matchCommand("addbl"), h.handleAddBlacklist)
	b.RegisterHandlerMatchFunc(matchCommand("delbl"), h.handleDelBlacklist)
	b.RegisterHandlerMatchFunc(matchCommand("listbl"), h.handleListBlacklist)
	b.RegisterHandlerMatchFunc(matchCommand("setjeda"), h.handleSetCooldown)
	b.RegisterHandlerMatchFunc(matchCommand("cekid"), h.handleCheckID)
	b.RegisterHandlerMatchFunc(matchCommand("backup"), h.handleBackup)
	b.RegisterHandlerMatchFunc(matchCommand("ping"), h.handlePing)

	// Menu buttons
	for _, label := range menuLabels {
		b.RegisterHandler(bot.HandlerTypeMessageText, label, bot.MatchTypeExact, h.handleMenuButton)
	}
	b.RegisterHandler(bot.HandlerTypeMessageText, LabelChatOwner, bot.MatchTypeExact, h.handleConnect)
	b.RegisterHandler(bot.HandlerTypeMessageText, LabelCancel, bot.MatchTypeExact, h.handleDisconnect)

	// Callbacks
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackCheckJoin, bot.MatchTypeExact, h.handleCheckJoin)
}

// HandleDefault routes updates that no registered handler matched:
// membership changes and chat session traffic.
func (h *Handler) HandleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.MyChatMember != nil:
		h.handleMembership(ctx, update.MyChatMember)
	case update.Message != nil && update.Message.From != nil:
		h.handleSessionMessage(ctx, update.Message)
	}
}

// parseCommand splits "/name@bot arg1 arg2" into the lowercase name and args.
// ok is false for text that is not a command.
func parseCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:], name != ""
}

// matchCommand matches messages whose first word is exactly /name.
func matchCommand(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		cmd, _, ok := parseCommand(update.Message.Text)
		return ok && cmd == name
	}
}

func commandArgs(msg *models.Message) []string {
	_, args, _ := parseCommand(msg.Text)
	return args
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func (h *Handler) actor(ctx context.Context, msg *models.Message) service.Actor {
	if a, ok := middleware.GetActor(ctx); ok {
		return a
	}
	if msg.From == nil {
		return service.Actor{}
	}
	return h.policy.Resolve(ctx, h.store, msg.From.ID)
}

// reply sends Markdown text to chatID, logging failures.
func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := telegram.SendMarkdown(ctx, h.api, chatID, text, nil); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID)
	}
}

// replyWithMarkup sends Markdown text with a keyboard.
func (h *Handler) replyWithMarkup(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if _, err := telegram.SendMarkdown(ctx, h.api, chatID, text, markup); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) replyHTML(ctx context.Context, chatID int64, text string) {
	if _, err := telegram.SendHTML(ctx, h.api, chatID, text, nil); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID)
	}
}

// requireMainOwner replies with the denial notice unless the sender is a main owner.
func (h *Handler) requireMainOwner(ctx context.Context, msg *models.Message) bool {
	if h.actor(ctx, msg).MainOwner {
		return true
	}
	h.reply(ctx, msg.Chat.ID, textMainOwnerOnly)
	return false
}

func (h *Handler) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if _, err := h.api.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		slog.Debug("delete message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}
