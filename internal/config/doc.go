// Package config loads loom.json, the configuration shared by the loom
// commands.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "frameInterval": "16ms",
//	    "sliceBudget": "5ms",
//	    "yieldThreshold": "1ms"
//	  },
//	  "log": {"level": "info", "format": "text"},
//	  "metrics": {"enabled": true, "namespace": "loom"},
//	  "serve": {"addr": "localhost:3000"},
//	  "snapshot": {
//	    "dir": "snapshots",
//	    "bucket": "my-bucket",
//	    "prefix": "pages/",
//	    "region": "eu-west-1"
//	  }
//	}
//
// Missing keys take the defaults returned by New. Command-line flags
// override file values.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	budget := cfg.SliceBudget()
package config
