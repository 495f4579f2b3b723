package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/log"
	"github.com/gridlhq/flapjack/pkg/types"
)

const settingsFileName = "settings.json"

// runMigrate walks every tenant directory under dataDir and fills in
// any settings.json key the current schema expects but an older file
// predates, the same backup-then-rewrite shape the teacher's
// warren-migrate tool used for its tasks->containers bucket copy,
// applied here to a per-tenant JSON file instead of a bbolt bucket.
func runMigrate(dataDir string, dryRun bool) error {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("data directory %s does not exist, nothing to migrate\n", dataDir)
			return nil
		}
		return fmt.Errorf("list data directory: %w", err)
	}

	defaults, err := defaultSettingsMap()
	if err != nil {
		return err
	}

	var migrated, upToDate int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		tenant := e.Name()
		path := filepath.Join(dataDir, tenant, settingsFileName)

		changed, err := migrateTenantSettings(tenant, path, defaults, dryRun)
		if err != nil {
			log.Logger.Error().Str("tenant", tenant).Err(err).Msg("failed to migrate tenant settings")
			continue
		}
		if changed {
			migrated++
		} else {
			upToDate++
		}
	}

	if dryRun {
		fmt.Printf("dry run: %d tenant(s) would be migrated, %d already current\n", migrated, upToDate)
	} else {
		fmt.Printf("migrated %d tenant(s), %d already current\n", migrated, upToDate)
	}
	return nil
}

func defaultSettingsMap() (map[string]interface{}, error) {
	content, err := sonic.Marshal(types.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("marshal default settings: %w", err)
	}
	var m map[string]interface{}
	if err := sonic.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("unmarshal default settings: %w", err)
	}
	return m, nil
}

// migrateTenantSettings fills missing keys in one tenant's
// settings.json from defaults, reporting whether it changed anything.
// A tenant with no settings.json yet is left alone — loadOrDefaultSettings
// already handles that case lazily at load time.
func migrateTenantSettings(tenant, path string, defaults map[string]interface{}, dryRun bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	var existing map[string]interface{}
	if err := sonic.Unmarshal(content, &existing); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}

	var missing []string
	for k, v := range defaults {
		if _, ok := existing[k]; !ok {
			existing[k] = v
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	fmt.Printf("tenant %q: adding missing settings keys %v\n", tenant, missing)
	if dryRun {
		return true, nil
	}

	if err := os.WriteFile(path+".bak", content, 0o644); err != nil {
		return false, fmt.Errorf("backup %s: %w", path, err)
	}

	updated, err := sonic.Marshal(existing)
	if err != nil {
		return false, fmt.Errorf("marshal migrated settings: %w", err)
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
