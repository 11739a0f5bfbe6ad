package resolver

// aliasTable maps normalized company references to their tickers.
// Keys are lowercase with legal suffixes already stripped.
var aliasTable = map[string]string{
	"apple":             "AAPL",
	"microsoft":         "MSFT",
	"google":            "GOOGL",
	"alphabet":          "GOOGL",
	"amazon":            "AMZN",
	"meta":              "META",
	"facebook":          "META",
	"tesla":             "TSLA",
	"nvidia":            "NVDA",
	"netflix":           "NFLX",
	"intel":             "INTC",
	"amd":               "AMD",
	"advanced micro devices": "AMD",
	"qualcomm":          "QCOM",
	"broadcom":          "AVGO",
	"adobe":             "ADBE",
	"salesforce":        "CRM",
	"oracle":            "ORCL",
	"cisco":             "CSCO",
	"ibm":               "IBM",
	"paypal":            "PYPL",
	"uber":              "UBER",
	"airbnb":            "ABNB",
	"coinbase":          "COIN",
	"palantir":          "PLTR",
	"shopify":           "SHOP",
	"spotify":           "SPOT",
	"zoom":              "ZM",
	"zoom video communications": "ZM",
	"starbucks":         "SBUX",
	"costco":            "COST",
	"pepsi":             "PEP",
	"pepsico":           "PEP",
	"coca cola":         "KO",
	"disney":            "DIS",
	"walt disney":       "DIS",
	"nike":              "NKE",
	"walmart":           "WMT",
	"boeing":            "BA",
	"ford":              "F",
	"ford motor":        "F",
	"general motors":    "GM",
	"jpmorgan":          "JPM",
	"jpmorgan chase":    "JPM",
	"goldman sachs":     "GS",
	"morgan stanley":    "MS",
	"bank of america":   "BAC",
	"visa":              "V",
	"mastercard":        "MA",
	"berkshire hathaway": "BRK.B",
	"exxon":             "XOM",
	"exxon mobil":       "XOM",
	"chevron":           "CVX",
	"pfizer":            "PFE",
	"moderna":           "MRNA",
	"johnson and johnson": "JNJ",
	"johnson johnson":   "JNJ",
	"unitedhealth":      "UNH",
	"micron":            "MU",
	"micron technology": "MU",
	"texas instruments": "TXN",
	"applied materials": "AMAT",
	"servicenow":        "NOW",
	"snowflake":         "SNOW",
	"datadog":           "DDOG",
	"crowdstrike":       "CRWD",
	"mongodb":           "MDB",
	"atlassian":         "TEAM",
	"twilio":            "TWLO",
	"roku":              "ROKU",
	"robinhood":         "HOOD",
	"draftkings":        "DKNG",
	"lucid":             "LCID",
	"lucid motors":      "LCID",
	"rivian":            "RIVN",
}

// displayNames maps tickers to their listed company names.
var displayNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"META":  "Meta Platforms, Inc.",
	"TSLA":  "Tesla, Inc.",
	"NVDA":  "NVIDIA Corporation",
	"NFLX":  "Netflix, Inc.",
	"INTC":  "Intel Corporation",
	"AMD":   "Advanced Micro Devices, Inc.",
	"QCOM":  "Qualcomm Incorporated",
	"AVGO":  "Broadcom Inc.",
	"ADBE":  "Adobe Inc.",
	"CRM":   "Salesforce, Inc.",
	"ORCL":  "Oracle Corporation",
	"CSCO":  "Cisco Systems, Inc.",
	"IBM":   "International Business Machines Corporation",
	"PYPL":  "PayPal Holdings, Inc.",
	"UBER":  "Uber Technologies, Inc.",
	"ABNB":  "Airbnb, Inc.",
	"COIN":  "Coinbase Global, Inc.",
	"PLTR":  "Palantir Technologies Inc.",
	"SHOP":  "Shopify Inc.",
	"SPOT":  "Spotify Technology S.A.",
	"ZM":    "Zoom Video Communications, Inc.",
	"SBUX":  "Starbucks Corporation",
	"COST":  "Costco Wholesale Corporation",
	"PEP":   "PepsiCo, Inc.",
	"KO":    "The Coca-Cola Company",
	"DIS":   "The Walt Disney Company",
	"NKE":   "NIKE, Inc.",
	"WMT":   "Walmart Inc.",
	"BA":    "The Boeing Company",
	"F":     "Ford Motor Company",
	"GM":    "General Motors Company",
	"JPM":   "JPMorgan Chase & Co.",
	"GS":    "The Goldman Sachs Group, Inc.",
	"MS":    "Morgan Stanley",
	"BAC":   "Bank of America Corporation",
	"V":     "Visa Inc.",
	"MA":    "Mastercard Incorporated",
	"BRK.B": "Berkshire Hathaway Inc.",
	"XOM":   "Exxon Mobil Corporation",
	"CVX":   "Chevron Corporation",
	"PFE":   "Pfizer Inc.",
	"MRNA":  "Moderna, Inc.",
	"JNJ":   "Johnson & Johnson",
	"UNH":   "UnitedHealth Group Incorporated",
	"MU":    "Micron Technology, Inc.",
	"TXN":   "Texas Instruments Incorporated",
	"AMAT":  "Applied Materials, Inc.",
	"NOW":   "ServiceNow, Inc.",
	"SNOW":  "Snowflake Inc.",
	"DDOG":  "Datadog, Inc.",
	"CRWD":  "CrowdStrike Holdings, Inc.",
	"MDB":   "MongoDB, Inc.",
	"TEAM":  "Atlassian Corporation",
	"TWLO":  "Twilio Inc.",
	"ROKU":  "Roku, Inc.",
	"HOOD":  "Robinhood Markets, Inc.",
	"DKNG":  "DraftKings Inc.",
	"LCID":  "Lucid Group, Inc.",
	"RIVN":  "Rivian Automotive, Inc.",
}
