// Package config loads and watches the updater configuration.
//
// Sources, applied in order:
//   - built-in defaults (puzzles.json, cache/, 2015 start year, 25 days,
//     December, America/New_York, 3 attempts with a 2s linear retry delay)
//   - the optional YAML file named by PUZZLES_CONFIG
//   - environment overrides (OUTPUT_FILE, CACHE_DIR, PUZZLES_* and LOG_LEVEL)
//
// Load(path) then validates ranges and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a rename event.
package config
