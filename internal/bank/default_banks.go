package bank

// DefaultDefinitions returns the built-in institution table. Most banks follow the
// generic SMS format; overrides exist only where the format materially diverges.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			CanonicalName: "HDFC",
			DisplayName:   "HDFC Bank",
			Aliases:       []string{"HDFCBK", "HDFCBN", "HDFCCC"},
		},
		{
			// SBI UPI alerts omit the currency marker and glue "Refno" together
			CanonicalName: "SBI",
			DisplayName:   "State Bank of India",
			Aliases:       []string{"SBIINB", "SBIUPI", "SBMSMS", "ATMSBI", "CBSSBI", "SBIPSG"},
			Rules: &RuleSet{
				Amount:    `(?:(?:\brs\.?|\binr|₹)\s*|\b(?:debited|credited)\s+by\s+)(-?[0-9][0-9,]*(?:\.[0-9]+)?)`,
				Reference: `\bref\s*no\.?\s*[:\-]?\s*([0-9]{6,})`,
				Merchant:  []string{`\btrf\s+to\s+([a-z0-9&'. \-]+?)\s+ref`},
			},
		},
		{
			// ICICI puts the payee before "credited" and the UPI reference after "UPI:"
			CanonicalName: "ICICI",
			DisplayName:   "ICICI Bank",
			Aliases:       []string{"ICICIB", "ICICIT", "ICICIO"},
			Rules: &RuleSet{
				Reference: `(?:\bupi\s*[:\-]\s*|\bref\s*(?:no\.?)?\s*[:\-]?\s*)([0-9]{6,})`,
				Merchant:  []string{`;\s*([a-z0-9&'. \-]+?)\s+credited\b`},
			},
		},
		{
			// Axis card alerts report the available limit instead of a balance
			CanonicalName: "AXIS",
			DisplayName:   "Axis Bank",
			Aliases:       []string{"AXISBK", "AXISBN", "AXISCC"},
			Rules: &RuleSet{
				Balance:  `avl\.?\s*lmt\.?\s*[:\-]?\s*(?:\brs\.?|\binr|₹)?\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)`,
				Merchant: []string{`\bist\s+([a-z0-9&'. \-]+?)\s+avl\b`},
			},
		},
		{
			CanonicalName: "KOTAK",
			DisplayName:   "Kotak Mahindra Bank",
			Aliases:       []string{"KOTAKB", "KOTAKM"},
		},
		{
			CanonicalName: "PNB",
			DisplayName:   "Punjab National Bank",
			Aliases:       []string{"PNBSMS", "PNBBNK"},
		},
		{
			CanonicalName: "BOB",
			DisplayName:   "Bank of Baroda",
			Aliases:       []string{"BOBTXN", "BOBSMS", "BOBCRD"},
		},
		{
			CanonicalName: "YES",
			DisplayName:   "Yes Bank",
			Aliases:       []string{"YESBNK", "YESBKL"},
		},
		{
			CanonicalName: "IDFC",
			DisplayName:   "IDFC First Bank",
			Aliases:       []string{"IDFCFB", "IDFCBK"},
		},
		{
			CanonicalName: "UNION",
			DisplayName:   "Union Bank of India",
			Aliases:       []string{"UNIONB", "UBOIBK"},
		},
		{
			CanonicalName: "CANARA",
			DisplayName:   "Canara Bank",
			Aliases:       []string{"CANBNK", "CNRBNK"},
		},
		{
			CanonicalName: "INDUSIND",
			DisplayName:   "IndusInd Bank",
			Aliases:       []string{"INDUSB", "INDUSL"},
		},
		{
			CanonicalName: "FEDERAL",
			DisplayName:   "Federal Bank",
			Aliases:       []string{"FEDBNK", "FEDFIB"},
		},
		{
			CanonicalName: "PAYTM",
			DisplayName:   "Paytm Payments Bank",
			Aliases:       []string{"PYTMBK", "IPAYTM"},
		},
	}
}
