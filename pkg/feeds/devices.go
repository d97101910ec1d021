package feeds

import (
	"context"
	"io"
	"time"

	"github.com/agentstation/assetsync/internal/matcher"
	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
)

// DeviceOptions controls device feed normalization.
type DeviceOptions struct {
	// AuxUserColumns are the auxiliary user-hint columns, in order.
	AuxUserColumns []string
	// SkipList holds placeholder serials that never identify a device. An
	// entry may be a glob ("VMware-*") or a "re:" regular expression.
	SkipList []string
	// DefaultCategory replaces a blank Device Type.
	DefaultCategory string
}

// DefaultDeviceOptions returns the stock column and skip-list configuration.
func DefaultDeviceOptions() DeviceOptions {
	return DeviceOptions{
		AuxUserColumns:  append([]string(nil), constants.DefaultAuxUserColumns...),
		SkipList:        append([]string(nil), constants.DefaultSerialSkipList...),
		DefaultCategory: constants.DefaultCategoryName,
	}
}

// DeviceStats counts what happened to feed rows.
type DeviceStats struct {
	Rows          int `json:"rows" yaml:"rows"`
	Unique        int `json:"unique" yaml:"unique"`
	Duplicates    int `json:"duplicates" yaml:"duplicates"`
	Skipped       int `json:"skipped" yaml:"skipped"`
	BadTimestamps int `json:"bad_timestamps" yaml:"bad_timestamps"`
}

// DeviceFeed is the deduplicated device feed.
type DeviceFeed struct {
	// Records holds one record per serial, in first-seen order.
	Records []inventory.DeviceRecord
	Stats   DeviceStats
	// Skips describes every skipped row.
	Skips []*errors.RowError
}

var requiredDeviceColumns = []string{
	constants.ColumnModel,
	constants.ColumnManufacturer,
	constants.ColumnCategory,
	constants.ColumnSerial,
	constants.ColumnComputerName,
	constants.ColumnLastReportTime,
}

// LoadDevices parses the device feed at path.
func LoadDevices(ctx context.Context, path string, opts DeviceOptions) (*DeviceFeed, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseDevices(ctx, f, path, opts)
}

// ParseDevices reads a device feed, drops placeholder and incomplete rows,
// and folds rows sharing a serial into the one with the latest report time.
// Equal report times keep the earlier row.
func ParseDevices(ctx context.Context, r io.Reader, source string, opts DeviceOptions) (*DeviceFeed, error) {
	logger := logging.FromContext(ctx)

	t, err := openTable(r, source, requiredDeviceColumns)
	if err != nil {
		return nil, err
	}

	if !t.has(constants.ColumnUserName) {
		logger.Warn().Str("column", constants.ColumnUserName).Msg("Device feed has no primary user column")
	}
	for _, col := range opts.AuxUserColumns {
		if !t.has(col) {
			logger.Warn().Str("column", col).Msg("Device feed is missing a user hint column")
		}
	}

	skip, err := newSkipList(opts.SkipList)
	if err != nil {
		return nil, err
	}
	feed := &DeviceFeed{}
	index := make(map[string]int)

	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		feed.Stats.Rows++

		serial := rec.get(constants.ColumnSerial)
		name := rec.get(constants.ColumnComputerName)
		reportTime := rec.get(constants.ColumnLastReportTime)

		var reason string
		switch {
		case serial == "":
			reason = "missing serial"
		case skip.Match(serial):
			reason = "serial " + serial + " is a placeholder"
		case reportTime == "":
			reason = "missing last report time"
		}
		if reason != "" {
			rowErr := errors.NewRowError("devices", rec.line, reason)
			feed.Skips = append(feed.Skips, rowErr)
			feed.Stats.Skipped++
			logger.Debug().Str("computer_name", name).Msg(rowErr.Error())
			continue
		}

		lastSeen, perr := time.Parse(constants.FeedTimeLayout, reportTime)
		if perr != nil {
			lastSeen = time.Time{}
			feed.Stats.BadTimestamps++
			logger.Warn().
				Int("row", rec.line).
				Str("serial", serial).
				Str("value", reportTime).
				Msg("Unparseable last report time; ranking row lowest")
		}

		if name == "" {
			name = serial
		}
		category := rec.get(constants.ColumnCategory)
		if category == "" {
			category = opts.DefaultCategory
		}

		hints := make([]string, 0, len(opts.AuxUserColumns))
		for _, col := range opts.AuxUserColumns {
			hints = append(hints, rec.raw(col))
		}

		device := inventory.DeviceRecord{
			Serial:       serial,
			Name:         name,
			Model:        rec.get(constants.ColumnModel),
			Manufacturer: rec.get(constants.ColumnManufacturer),
			Category:     category,
			LastSeen:     lastSeen,
			PrimaryUser:  rec.get(constants.ColumnUserName),
			UserHints:    hints,
			Row:          rec.line,
		}

		key := inventory.NormalizeSerial(serial)
		if i, seen := index[key]; seen {
			feed.Stats.Duplicates++
			if device.LastSeen.After(feed.Records[i].LastSeen) {
				feed.Records[i] = device
			}
			continue
		}
		index[key] = len(feed.Records)
		feed.Records = append(feed.Records, device)
	}

	feed.Stats.Unique = len(feed.Records)
	logger.Info().
		Int("rows", feed.Stats.Rows).
		Int("unique", feed.Stats.Unique).
		Int("duplicates", feed.Stats.Duplicates).
		Int("skipped", feed.Stats.Skipped).
		Msg("Parsed device feed")

	return feed, nil
}

// allZeros catches serials reported as a run of zeros of any length.
const allZeros = matcher.RegexPrefix + "^0+$"

// newSkipList compiles the placeholder serial patterns. Entries are exact
// serials unless they hold glob metacharacters or start with "re:".
func newSkipList(patterns []string) (*matcher.MultiMatcher, error) {
	mm, err := matcher.NewMultiMatcher(append(append([]string(nil), patterns...), allZeros), matcher.Auto, &matcher.Options{CaseInsensitive: true, Trim: true})
	if err != nil {
		return nil, errors.NewConfigError("feeds", "invalid serial skip list", err)
	}
	return mm, nil
}
