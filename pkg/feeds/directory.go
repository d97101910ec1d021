package feeds

import (
	"context"
	"io"
	"strings"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
)

var requiredDirectoryColumns = []string{
	constants.ColumnNetID,
	constants.ColumnEmployeeID,
	constants.ColumnFirstName,
	constants.ColumnLastName,
	constants.ColumnEmail,
}

// DirectoryStats counts what happened to directory rows.
type DirectoryStats struct {
	Rows       int `json:"rows" yaml:"rows"`
	Loaded     int `json:"loaded" yaml:"loaded"`
	Incomplete int `json:"incomplete" yaml:"incomplete"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
}

// DirectoryFeed is the parsed personnel directory.
type DirectoryFeed struct {
	Directory *inventory.Directory
	Stats     DirectoryStats
	Skips     []*errors.RowError
}

// LoadDirectory parses the directory feed at path.
func LoadDirectory(ctx context.Context, path string) (*DirectoryFeed, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseDirectory(ctx, f, path)
}

// ParseDirectory reads directory rows. Rows missing any identity field are
// skipped; a repeated Employee-ID keeps the first row.
func ParseDirectory(ctx context.Context, r io.Reader, source string) (*DirectoryFeed, error) {
	logger := logging.FromContext(ctx)

	t, err := openTable(r, source, requiredDirectoryColumns)
	if err != nil {
		return nil, err
	}

	feed := &DirectoryFeed{Directory: inventory.NewDirectory()}
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		feed.Stats.Rows++

		entry := inventory.DirectoryRecord{
			EmployeeID: rec.get(constants.ColumnEmployeeID),
			NetID:      strings.ToLower(rec.get(constants.ColumnNetID)),
			FirstName:  rec.get(constants.ColumnFirstName),
			LastName:   rec.get(constants.ColumnLastName),
			Email:      rec.get(constants.ColumnEmail),
		}

		if missing := missingFields(entry); len(missing) > 0 {
			rowErr := errors.NewRowError("directory", rec.line, "missing "+strings.Join(missing, ", "))
			feed.Skips = append(feed.Skips, rowErr)
			feed.Stats.Incomplete++
			logger.Debug().Msg(rowErr.Error())
			continue
		}

		if !feed.Directory.Put(entry) {
			rowErr := errors.NewRowError("directory", rec.line, "duplicate employee ID "+entry.EmployeeID)
			feed.Skips = append(feed.Skips, rowErr)
			feed.Stats.Duplicates++
			logger.Warn().Msg(rowErr.Error())
			continue
		}
		feed.Stats.Loaded++
	}

	logger.Info().
		Int("rows", feed.Stats.Rows).
		Int("loaded", feed.Stats.Loaded).
		Int("incomplete", feed.Stats.Incomplete).
		Int("duplicates", feed.Stats.Duplicates).
		Msg("Parsed directory feed")

	return feed, nil
}

func missingFields(rec inventory.DirectoryRecord) []string {
	var missing []string
	if rec.NetID == "" {
		missing = append(missing, constants.ColumnNetID)
	}
	if rec.EmployeeID == "" {
		missing = append(missing, constants.ColumnEmployeeID)
	}
	if rec.FirstName == "" {
		missing = append(missing, constants.ColumnFirstName)
	}
	if rec.LastName == "" {
		missing = append(missing, constants.ColumnLastName)
	}
	if rec.Email == "" {
		missing = append(missing, constants.ColumnEmail)
	}
	return missing
}
