package feeds

import (
	"context"
	"io"
	"strings"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/inventory"
	"github.com/agentstation/assetsync/pkg/logging"
)

// LoadAdminSchema parses the shared-ownership schema at path. An empty path
// means no schema and yields no rules.
func LoadAdminSchema(ctx context.Context, path string) ([]inventory.AdminRule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAdminSchema(ctx, f, path)
}

// ParseAdminSchema reads (Schema, NetID) rows into ordered rules. A trailing
// "*" on a schema is a wildcard and is dropped; every schema is a prefix.
func ParseAdminSchema(ctx context.Context, r io.Reader, source string) ([]inventory.AdminRule, error) {
	t, err := openTable(r, source, []string{constants.ColumnSchema, constants.ColumnSchemaNetID})
	if err != nil {
		return nil, err
	}

	var rules []inventory.AdminRule
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		prefix := strings.TrimRight(rec.get(constants.ColumnSchema), "*")
		prefix = strings.TrimSpace(prefix)
		netID := inventory.NormalizeNetID(rec.get(constants.ColumnSchemaNetID))
		if prefix == "" || netID == "" {
			continue
		}
		rules = append(rules, inventory.AdminRule{Prefix: prefix, NetID: netID})
	}

	logging.FromContext(ctx).Info().Int("rules", len(rules)).Msg("Parsed admin schema")
	return rules, nil
}
