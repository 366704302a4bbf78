package completion

// Persona is the system prompt for the sales assistant.
const Persona = `You are an AI assistant for ANB Tech Supplies, specializing in iPhone sales. ` +
	`Your role is to assist customers with information about iPhone models, pricing, installment plans, and other inquiries. ` +
	`You also handle customer service and sales requests, providing details on product availability, payment methods, and more. ` +
	`Always respond clearly, politely, and helpfully, staying focused on the customer's question or request. ` +
	`Use short sentences and simple language for easy reading. ` +
	`Maintain context from previous messages to ensure a seamless conversation. ` +
	`Do not include any links unless explicitly instructed. ` +
	`Do not generate or invent banking details; use only the provided details: ` +
	`Account Number: 1773081371, Bank: Capitec, Name: Mr N Nkapele when asked for payment information. ` +
	`When a customer specifies a model, color, and storage (e.g., "Pink iPhone 13, 128GB"), provide details specific to that request.`

// DefaultHistoryMessages is ten user/assistant turns.
const DefaultHistoryMessages = 20

// BuildMessages assembles the system prompt, the most recent maxHistory
// history messages, and the current user message. Messages with empty content
// are dropped.
func BuildMessages(system string, history []Message, query string, maxHistory int) []Message {
	if maxHistory >= 0 && len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	msgs := make([]Message, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		msgs = append(msgs, m)
	}
	return append(msgs, Message{Role: "user", Content: query})
}
