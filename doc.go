// File: lixenwraith/cascade/doc.go

// Package cascade loads hierarchical configuration by name from a cascade of
// overlay files spread over several search directories.
//
// For a name such as "database" the registry looks for files named after the
// name plus a precedence suffix, in every load path and for every known file
// type, decodes those that exist and deep-merges ("weaves") them into one
// read-only Value. Later suffixes override earlier ones:
//
//	database                     base
//	database_local
//	database_config
//	database_local_config
//	database_<TIER>              TIER env, default "production"
//	database_<TIER>_local
//	database_<SHORT_HOST>        host name up to the first dot
//	database_<SHORT_HOST>_config_local
//	database_<HOST>              CONFIG_HOSTNAME env or os.Hostname
//	database_<HOST>_config_local
//
// With an overlay (CONFIG_OVERLAY env, SetOverlay, or an upper-case suffix on
// the requested name such as "database_GB") every suffix is followed by its
// overlay variant, e.g. database_GB_local.
//
// Supported file types, searched in this order: yml, yaml, xml, cnf, conf,
// config, properties, toml, json.
//
// Quick Start:
//
//	reg, err := cascade.NewBuilder().
//	    WithLoadPaths("/etc/myapp", "./config").
//	    WithLogger(slog.Default()).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	db, err := reg.Config("database")
//	host, _ := db.String("primary.host")
//	port, _ := reg.Path("database").At("primary", "port").Int64()
//
// Merging:
// Mappings merge recursively. Sequences concatenate, base first. A scalar
// overlaid with a sequence is prepended to it. A mapping overlaid with a
// sequence is an error (ErrWeaveConflict).
//
// Caching and reload:
// Decoded files are cached by path and mtime, merged results by name. At most
// once per reload interval (default 5 minutes) a lookup re-lists the files of
// its name; when the listing changed the name is rebuilt and on-load
// callbacks fire. Reload can be disabled, in which case the data of the last
// successful load is served even after Flush.
//
// Thread Safety:
// All operations are thread-safe. The core starts no goroutines; the optional
// Watcher runs change checks on file system events.
package cascade
