package config

import (
	"fmt"
	"sort"
	"strings"
)

// Lists are the predefined scan universes, selectable by name.
var Lists = map[string][]string{
	"UK_LARGE_CAP": {
		"SHEL.L", "AZN.L", "HSBA.L", "ULVR.L", "DGE.L", "BP.L", "GSK.L", "RIO.L",
		"BATS.L", "LSEG.L", "REL.L", "NG.L", "LLOY.L", "VOD.L", "BARC.L", "PRU.L",
		"BT.L", "RKT.L", "AAL.L", "CRH.L", "GLEN.L", "AV.L", "SSE.L", "TSCO.L",
		"LGEN.L", "NWG.L", "STAN.L", "IMB.L", "CPG.L", "SMT.L",
	},
	"US_LIQUID_TECH": {
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "AMD",
		"NFLX", "ADBE", "CRM", "INTC", "CSCO", "ORCL", "AVGO", "QCOM",
		"NOW", "SNOW", "PLTR", "UBER", "PYPL", "SHOP", "ZM", "DOCU",
	},
	"US_BLUE_CHIP": {
		"JPM", "V", "MA", "JNJ", "WMT", "PG", "UNH", "HD", "DIS", "BAC",
		"KO", "PFE", "XOM", "CVX", "MRK", "COST", "NKE", "BA", "GE", "CAT",
	},
	"US_GROWTH": {
		"ABNB", "COIN", "RBLX", "DASH", "DDOG", "NET", "CRWD", "ZS", "OKTA", "MDB",
		"TEAM", "WDAY", "PANW", "FTNT", "SPLK", "TWLO", "ROKU", "SQ", "SPOT", "U",
	},
	"US_FINANCIAL": {
		"GS", "MS", "C", "WFC", "BLK", "SCHW", "AXP", "SPGI", "MMC", "ICE",
	},
	"US_HEALTHCARE": {
		"ABBV", "TMO", "ABT", "DHR", "LLY", "BMY", "AMGN", "GILD", "VRTX", "REGN", "ISRG",
		"CI", "CVS", "HUM", "BIIB", "ZTS", "ILMN", "IDXX", "DXCM", "ALGN", "EXAS", "STE",
	},
}

// ListNames returns the predefined list names in sorted order.
func ListNames() []string {
	names := make([]string, 0, len(Lists))
	for name := range Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Universe combines named lists with custom symbols into a sorted, de-duplicated
// upper-case symbol list. Unknown list names are an error.
func Universe(lists, custom []string) ([]string, error) {
	set := make(map[string]struct{})
	var unknown []string
	for _, name := range lists {
		symbols, ok := Lists[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		for _, s := range symbols {
			set[s] = struct{}{}
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown universe list(s): %s", strings.Join(unknown, ", "))
	}
	for _, s := range custom {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
