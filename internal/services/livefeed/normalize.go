package livefeed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/pkg/util"
)

// fieldAliases lists, per record field, the upstream keys that may carry it.
// Lookup is case-insensitive.
var fieldAliases = map[string][]string{
	"commodity": {"commodity", "commodity_name", "commodityname"},
	"state":     {"state", "state_name", "statename"},
	"district":  {"district", "district_name", "districtname"},
	"market":    {"market", "market_name", "marketname", "mandi", "mandi_name"},
	"date":      {"arrival_date", "price_date", "date", "reported_date", "arrivaldate"},
	"modal":     {"modal_price", "modal_x0020_price", "modalprice", "modal"},
	"min":       {"min_price", "min_x0020_price", "minprice", "min"},
	"max":       {"max_price", "max_x0020_price", "maxprice", "max"},
}

// normalizeRecords maps loosely typed upstream rows onto PriceRecord. Rows with a
// missing or non-positive modal price are dropped; a missing date becomes fetchDay.
func normalizeRecords(rows []map[string]interface{}, commodity string, fetchDay time.Time) []models.PriceRecord {
	out := make([]models.PriceRecord, 0, len(rows))
	for _, row := range rows {
		lower := make(map[string]interface{}, len(row))
		for k, v := range row {
			lower[strings.ToLower(strings.TrimSpace(k))] = v
		}
		get := func(field string) string {
			for _, alias := range fieldAliases[field] {
				if v, ok := lower[alias]; ok && v != nil {
					if s := strings.TrimSpace(stringify(v)); s != "" {
						return s
					}
				}
			}
			return ""
		}

		modal, ok := util.ParsePrice(get("modal"))
		if !ok || modal <= 0 {
			continue
		}
		rec := models.PriceRecord{
			Commodity:  util.Normalize(get("commodity")),
			State:      util.Normalize(get("state")),
			District:   util.Normalize(get("district")),
			Market:     util.Normalize(get("market")),
			PriceDate:  util.Day(fetchDay),
			ModalPrice: modal,
			MinPrice:   modal,
			MaxPrice:   modal,
		}
		if rec.Commodity == "" {
			rec.Commodity = util.Normalize(commodity)
		}
		if d, ok := util.ParseDate(get("date")); ok {
			rec.PriceDate = d
		}
		if v, ok := util.ParsePrice(get("min")); ok && v > 0 {
			rec.MinPrice = v
		}
		if v, ok := util.ParsePrice(get("max")); ok && v > 0 {
			rec.MaxPrice = v
		}
		out = append(out, rec)
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// extractList finds the record array in a decoded body: a bare array, or an
// object holding it under records, data, commodities or output.data.
func extractList(body interface{}) []map[string]interface{} {
	switch v := body.(type) {
	case []interface{}:
		return toMaps(v)
	case map[string]interface{}:
		for _, key := range []string{"records", "data", "commodities", "results"} {
			if arr, ok := v[key].([]interface{}); ok {
				return toMaps(arr)
			}
		}
		if out, ok := v["output"].(map[string]interface{}); ok {
			return extractList(out)
		}
	}
	return nil
}

func toMaps(arr []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
