package care

import "fmt"

const (
	// Fallback replaces the care text when the service cannot be reached or
	// returns nothing usable.
	Fallback = "Unable to fetch care information at this time."
	// Empty replaces a blank answer.
	Empty = "No care information available."

	systemPrompt = "You are a helpful plant care assistant."
)

const userPromptTemplate = `Provide brief plant care information for %s. Include:
- Light: [type of light]
- Water: [watering frequency]
- Soil: [soil type & pH]
- Temperature: [ideal range]
- Humidity: [humidity level]
- Fertilizer: [type & frequency]
- Toxicity: [to animals/children]
- Lifespan: [average lifespan].
Keep each answer to a few words.`

// BuildMessages returns the system and user messages asking for care notes on plantName.
func BuildMessages(plantName string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, plantName)},
	}
}
