// Package factory is a small generic registry used to build pluggable modules
// (plan stores, metrics sinks) from configuration. A module is described by a
// type name and a map of raw settings; each factory decodes the settings into
// its own typed struct.
//
//	reg := factory.NewRegistry[planstore.Store]()
//	reg.Register("sqlite", func(conf map[string]any) (planstore.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return planstore.NewSQLiteStore(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "plans.db"}})
package factory
