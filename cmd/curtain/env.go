package main

// environment overrides, applied before flags so flags win
const (
	EnvBackend = "CURTAIN_BACKEND"
	EnvDevice  = "CURTAIN_DEVICE"
	EnvAssets  = "CURTAIN_ASSETS"
)

func applyEnv(cfg *config, lookup func(string) (string, bool)) {
	for _, v := range []struct {
		key string
		dst *string
	}{
		{EnvBackend, &cfg.backend},
		{EnvDevice, &cfg.device},
		{EnvAssets, &cfg.assetsDir},
	} {
		if val, ok := lookup(v.key); ok && val != "" {
			*v.dst = val
		}
	}
}
