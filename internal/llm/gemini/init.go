package gemini

import "intervuex/internal/llm"

// importing the package makes "gemini" available to llm.NewProvider
func init() {
	llm.RegisterProvider(providerName, func() (llm.Provider, error) {
		cfg, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(cfg)
	})
}
