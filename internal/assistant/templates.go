package assistant

import (
	"fmt"
	"strings"

	"github.com/anbtech/storebot/internal/intent"
)

const (
	CustomizerURL  = "https://iphone-customizer.onrender.com/"
	ApplicationURL = "https://applications-yzex.onrender.com/"
)

const paymentOptions = `Payment Options:
- 💳 Credit/Debit Card
- 💳 PayPal
- 🏦 Bank Transfer:
  Account Number: 1773081371
  Bank: Capitec
  Name: Mr N Nkapele
- 📅 Installment Plan (up to 24 months)`

const PriceList = `📌 iPhone Price List – 40% Discount Applied

Older Models:
- iPhone X: ~~R7,999~~ Now R4,799
- iPhone XS: ~~R8,999~~ Now R5,399
- iPhone XS Max: ~~R9,999~~ Now R5,999

Mid-Range Models:
- iPhone 11 Pro: ~~R12,999~~ Now R7,799
- iPhone 11 Pro Max: ~~R13,999~~ Now R8,399
- iPhone 12 Pro: ~~R15,999~~ Now R9,599
- iPhone 12 Pro Max: ~~R16,999~~ Now R10,199
- iPhone 13: ~~R12,582~~ Now R7,549

Newer Models:
- iPhone 13 Pro: ~~R17,999~~ Now R10,799
- iPhone 13 Pro Max: ~~R18,999~~ Now R11,399
- iPhone 14 Pro: ~~R20,999~~ Now R12,599
- iPhone 14 Pro Max: ~~R21,999~~ Now R13,199

Latest Models:
- iPhone 15 Pro: ~~R22,999~~ Now R13,799
- iPhone 15 Pro Max: ~~R23,999~~ Now R14,399
- iPhone 16 Pro: ~~R24,999~~ Now R14,999
- iPhone 16 Pro Max: ~~R25,999~~ Now R15,599`

const InstallmentPlan = `💳 Monthly Installment Plan

- Minimum Deposit: R750
- Flexible Repayment: Up to 24 months

Example for iPhone X (R4,799):
- 3 Months: R1,349/month
- 6 Months: R674/month
- 12 Months: R337/month
- 18 Months: R224/month
- 24 Months: R169/month

To apply, visit:
` + ApplicationURL

const Recommendations = `📱 Top Picks for You

- iPhone 12 Pro + Wireless Charger: R10,899
- iPhone 14 Pro Max + Case: R14,299

Want more details or ready to buy?
Just let me know!`

const OrderFlow = `✅ Ready to Buy? Here’s How

Prices:
- iPhone 12 Pro: R9,599
- iPhone 13 Pro Max: R11,399

` + paymentOptions + `

For installments, ask me for the link!
Which option works for you?

Once paid, reply with "PAID" and your order details!`

const PictureLink = `📸 See iPhones & Customize Your Order

Visit:
` + CustomizerURL

const AdResponse = `👋 Thanks for replying!

We’re ANB Tech Supplies.
We sell the latest iPhones at great prices.
From the iPhone X to the iPhone 16 Pro Max, we have it all!
Flexible payment options too.

See our range and customize your order:
` + CustomizerURL + `

How can I assist you today?`

const (
	PaymentReceived     = "✅ Payment received! Thanks for your purchase.\nHow else can I assist you?"
	PaymentNeedsDetails = "Please include your order details after 'PAID' (e.g., 'PAID iPhone 12 Pro')."
	ReportUnavailable   = "Sorry, the sales report is unavailable right now."
)

// Scheduler messages.
const (
	PromoMessage = `🎉 Special Offer!

Get 5% off your next iPhone this week only.
Reply "PROMO" to claim it or ask for details!`

	FollowUpMessage = `👋 Hi there!

I noticed you haven’t replied yet.
How can I help you with your iPhone today?`
)

// ReminderMessage is the text delivered when a reminder fires.
func ReminderMessage(text string) string {
	return fmt.Sprintf("⏰ Your Reminder\n\n%s\nHow can I help you now?", text)
}

func reminderConfirmation(r intent.ReminderRequest) string {
	per := r.Unit.Seconds()
	value := r.Seconds / per
	return fmt.Sprintf("⏰ Reminder Set\n\nI’ll remind you in %d %s.\nWhat’s it about?", value, r.Unit.Word(value))
}

func quoteReply(p intent.PurchaseRequest, model string, price int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Your %s\n\n", p.Item())
	fmt.Fprintf(&b, "The %s %s is a stunning choice with a sleek design and great performance.\n", p.Color, model)
	fmt.Fprintf(&b, "Price: R%d\n", price)
	if p.HasCustomerPrice && p.CustomerPrice != price {
		fmt.Fprintf(&b, "(You mentioned R%d, but our price is R%d)\n", p.CustomerPrice, price)
	}
	b.WriteString("\n")
	b.WriteString(paymentOptions)
	b.WriteString("\n\nTo proceed, let me know your payment option!\n")
	b.WriteString("Once paid, reply with 'PAID' and your order details.")
	return b.String()
}

func unavailableReply(p intent.PurchaseRequest) string {
	return fmt.Sprintf("Sorry, we don’t have %s in %s with %dgb available.\n"+
		"Check our full list with 'price' or ask me for alternatives!", p.Model, p.Color, p.StorageGB)
}
