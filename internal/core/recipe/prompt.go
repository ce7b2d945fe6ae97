package recipe

import (
	"strings"
)

// spiceLabels 辣度 0 到 5 對應的文字
var spiceLabels = [...]string{"none", "very low", "low", "medium", "high", "very high"}

// SpiceLabel 回傳辣度標籤，超出範圍的值會被夾在 0 到 5
func SpiceLabel(level int) string {
	if level < 0 {
		level = 0
	}
	if level >= len(spiceLabels) {
		level = len(spiceLabels) - 1
	}
	return spiceLabels[level]
}

const extractionPrompt = `You are a recipe extraction assistant. Your task is to extract recipe information from a transcript and return it as a structured JSON object.

You may receive a video caption and/or an audio transcript. Use ALL available context to extract the recipe. The caption often contains ingredient lists, quantities, or other details not spoken aloud.

Return ONLY a valid JSON object with no additional text, explanation, or markdown formatting.

Use this exact JSON structure:

{
  "title": "string",
  "description": "string or null",
  "servings": {
    "amount": number,
    "unit": "string (e.g. 'servings', 'pieces', 'portions')"
  },
  "times": {
    "prep_minutes": integer or null,
    "cook_minutes": integer or null,
    "total_minutes": integer or null
  },
  "ingredients": [
    {
      "name": "string",
      "amount": number or null,
      "unit": "string or null",
      "notes": "string or null (e.g. 'finely chopped', 'at room temperature')"
    }
  ],
  "steps": [
    {
      "order": integer,
      "instruction": "string",
      "duration_minutes": integer or null,
      "require_timer": boolean
    }
  ],
  "tags": ["string"],
  "equipment": ["string"],
  "notes": "string or null",
  "modifications": []
}

Rules:
- If information is not mentioned in the transcript, use null for optional fields
- Normalize ingredient amounts to numbers (e.g. "half" -> 0.5, "a dozen" -> 12)
- Normalize units to standard abbreviations (e.g. "tablespoons" -> "tbsp", "teaspoons" -> "tsp", "grams" -> "g")
- Split compound steps into individual, atomic steps, numbered from 1
- Set "require_timer" to true only for steps the cook has to time (baking, simmering, resting)
- Infer reasonable tags from context (e.g. "vegetarian", "gluten-free", "dessert", "quick")
- List any cooking tools or equipment mentioned
- Capture any tips, variations, or serving suggestions in the notes field
- Always include "modifications" as an empty array unless the user preferences below require changes
`

const preferencesHeader = `
User preferences:
The recipe must be adapted to the following preferences. Substitute or remove ingredients and adjust steps as needed so the result respects them.
`

const preferencesRules = `
For every change you make to satisfy these preferences, add an entry to "modifications" of the form {"what": "what was changed", "why": "which preference required it"}.
If the original recipe already satisfies the preferences, return "modifications": [].
`

// BuildExtractionPrompt 組合系統提示，prefs 為 nil 時不加入偏好區塊
func BuildExtractionPrompt(prefs *Settings) string {
	if prefs == nil {
		return extractionPrompt
	}

	var b strings.Builder
	b.WriteString(extractionPrompt)
	b.WriteString(preferencesHeader)
	if prefs.DietaryRestrictions != nil && strings.TrimSpace(*prefs.DietaryRestrictions) != "" {
		b.WriteString("- Dietary restrictions: ")
		b.WriteString(*prefs.DietaryRestrictions)
		b.WriteString("\n")
	}
	b.WriteString("- Spice tolerance: ")
	b.WriteString(SpiceLabel(prefs.SpiceTolerance))
	b.WriteString("\n")
	if prefs.CustomRules != nil && strings.TrimSpace(*prefs.CustomRules) != "" {
		b.WriteString("- Custom rules: ")
		b.WriteString(*prefs.CustomRules)
		b.WriteString("\n")
	}
	b.WriteString(preferencesRules)
	return b.String()
}

// BuildExtractionInput 組合使用者訊息，字幕放在逐字稿之前
func BuildExtractionInput(transcript string, caption *string) string {
	parts := make([]string, 0, 2)
	if caption != nil && strings.TrimSpace(*caption) != "" {
		parts = append(parts, "Video caption:\n\n"+*caption)
	}
	parts = append(parts, "Transcript:\n\n"+transcript)
	return strings.Join(parts, "\n\n---\n\n")
}
