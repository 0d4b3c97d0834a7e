package telegram

import (
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton creates a URL inline keyboard button.
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// ReplyKeyboard creates a persistent resized reply keyboard from rows of labels.
func ReplyKeyboard(rows ...[]string) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: lo.Map(rows, func(row []string, _ int) []models.KeyboardButton {
			return lo.Map(row, func(label string, _ int) models.KeyboardButton {
				return models.KeyboardButton{Text: label}
			})
		}),
		ResizeKeyboard: true,
	}
}

// RemoveKeyboard hides any reply keyboard.
func RemoveKeyboard() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}
