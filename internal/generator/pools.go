package generator

// Fixed pools sampled uniformly by Generate.
var (
	userNames = []string{
		"Ahmed K.", "Sarah M.", "Rahul P.", "Fatima A.", "James L.",
		"Omar S.", "Priya N.", "Chen W.", "Layla H.", "Daniel R.",
	}

	avatarGlyphs = []string{"👨‍💼", "👩‍💼", "🧑‍💻", "👨‍🔧", "👩‍🚀", "🧔", "👩", "👨"}

	countryGlyphs = []string{"🇦🇪", "🇮🇳", "🇵🇰", "🇸🇦", "🇬🇧", "🇵🇭", "🇪🇬", "🇳🇬"}

	// USDT -> AED rates, four decimal places.
	ratePool = []string{"3.6700", "3.6715", "3.6725", "3.6730", "3.6745", "3.6750"}

	descriptions = []string{
		"Bank transfer", "Cash pickup", "Instant payout", "Remittance",
		"Merchant settlement", "Salary payout",
	}

	priorities = []string{"High", "Medium", "Low"}
)

const (
	minAmount = 100
	maxAmount = 1600

	amountAsset = "USDT"

	idSuffixLen   = 5
	idSuffixSpace = 36 * 36 * 36 * 36 * 36
)
