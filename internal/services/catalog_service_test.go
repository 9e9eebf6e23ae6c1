package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_pos_backend/internal/models"
)

func TestValidateTranslations(t *testing.T) {
	t.Run("accepts both locales", func(t *testing.T) {
		err := validateTranslations([]TranslationInput{
			{Locale: "en", Name: "Cotton Lawn"},
			{Locale: "ur", Name: "سوتی لان"},
		}, true)
		assert.NoError(t, err)
	})

	t.Run("rejects an unsupported locale", func(t *testing.T) {
		err := validateTranslations([]TranslationInput{{Locale: "fr", Name: "Coton"}}, true)
		assert.ErrorIs(t, err, ErrUnsupportedLocale)
	})

	t.Run("rejects a duplicated locale", func(t *testing.T) {
		err := validateTranslations([]TranslationInput{
			{Locale: "en", Name: "Cotton"},
			{Locale: "en", Name: "Cotton again"},
		}, true)
		assert.ErrorIs(t, err, ErrUnsupportedLocale)
	})

	t.Run("requires English when asked", func(t *testing.T) {
		err := validateTranslations([]TranslationInput{{Locale: "ur", Name: "سوتی لان"}}, true)
		assert.ErrorIs(t, err, ErrMissingEnglishName)
	})

	t.Run("Urdu alone is fine for partial updates", func(t *testing.T) {
		err := validateTranslations([]TranslationInput{{Locale: "ur", Name: "سوتی لان"}}, false)
		assert.NoError(t, err)
	})

	t.Run("blank names are rejected after trimming", func(t *testing.T) {
		err := validateTranslations([]TranslationInput{{Locale: "en", Name: "   "}}, true)
		assert.ErrorIs(t, err, ErrMissingEnglishName)
	})
}

func TestMirrorTranslations(t *testing.T) {
	t.Run("fills the missing Urdu entry from English", func(t *testing.T) {
		out := mirrorTranslations([]TranslationInput{{Locale: "en", Name: "Cotton Lawn"}})
		require.Len(t, out, 2)
		assert.Equal(t, "ur", out[1].Locale)
		assert.Equal(t, "Cotton Lawn", out[1].Name)
	})

	t.Run("leaves a complete pair alone", func(t *testing.T) {
		out := mirrorTranslations([]TranslationInput{
			{Locale: "en", Name: "Cotton Lawn"},
			{Locale: "ur", Name: "سوتی لان"},
		})
		assert.Len(t, out, 2)
	})
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, models.LocaleUrdu, normalizeLocale("ur"))
	assert.Equal(t, models.LocaleEnglish, normalizeLocale("en"))
	assert.Equal(t, models.LocaleEnglish, normalizeLocale(""))
	assert.Equal(t, models.LocaleEnglish, normalizeLocale("de"))
}
