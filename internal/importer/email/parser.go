package email

import (
	"strconv"
	"strings"

	"github.com/mquan/grocery-planner/internal/api"
	"github.com/mquan/grocery-planner/internal/model"
)

// knownUnits are quantity units recognized by the line parser.
var knownUnits = map[string]bool{
	"lb": true, "lbs": true, "oz": true, "kg": true, "g": true,
	"ml": true, "l": true, "cup": true, "cups": true, "tbsp": true,
	"tsp": true, "pcs": true, "pkg": true, "dozen": true, "bunch": true,
	"can": true, "cans": true, "bag": true, "bags": true,
}

// ParseItems converts the plain-text body of a shopping-list email
// into item inputs. Each non-empty line is expected to look like
//
//	[qty] [unit] name [#category]
//
// e.g. "2 lb chicken breast #meat" or "milk". Lines that do not yield
// an item name are skipped.
func ParseItems(body string) []api.ItemInput {
	var items []api.ItemInput

	for _, line := range strings.Split(body, "\n") {
		if item, ok := parseLine(line); ok {
			items = append(items, item)
		}
	}

	return items
}

// parseLine parses a single list line. ok is false when the line holds
// no item name.
func parseLine(line string) (api.ItemInput, bool) {
	line = strings.TrimSpace(line)

	// Tolerate common list markers.
	for _, marker := range []string{"- ", "* ", "• "} {
		line = strings.TrimPrefix(line, marker)
	}

	if line == "" || strings.HasPrefix(line, ">") {
		return api.ItemInput{}, false
	}

	item := api.ItemInput{
		Quantity: 1,
		Category: model.CategoryOther,
		Priority: model.PriorityMedium,
	}

	fields := strings.Fields(line)

	// Trailing #category tag.
	if n := len(fields); n > 0 && strings.HasPrefix(fields[n-1], "#") {
		tag := strings.ToLower(strings.TrimPrefix(fields[n-1], "#"))
		for _, c := range model.Categories {
			if c == tag {
				item.Category = c
				break
			}
		}
		fields = fields[:n-1]
	}

	// Leading quantity.
	if len(fields) > 1 {
		if qty, err := strconv.ParseFloat(fields[0], 64); err == nil && qty > 0 {
			item.Quantity = qty
			fields = fields[1:]

			// Unit directly after the quantity.
			if len(fields) > 1 && knownUnits[strings.ToLower(fields[0])] {
				item.Unit = strings.ToLower(fields[0])
				fields = fields[1:]
			}
		}
	}

	name := strings.TrimSpace(strings.Join(fields, " "))
	if name == "" {
		return api.ItemInput{}, false
	}
	item.Name = name

	return item, true
}
