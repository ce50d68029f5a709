package config_test

import (
	"errors"
	"testing"

	"github.com/giggslabs/foodchain/internal/config"
	"github.com/giggslabs/foodchain/pkg/provider/llm"
	llmmock "github.com/giggslabs/foodchain/pkg/provider/llm/mock"
	"github.com/giggslabs/foodchain/pkg/provider/stt"
	sttmock "github.com/giggslabs/foodchain/pkg/provider/stt/mock"
	"github.com/giggslabs/foodchain/pkg/provider/tts"
	ttsmock "github.com/giggslabs/foodchain/pkg/provider/tts/mock"
)

func TestRegistry_CreateUnregistered(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	entry := config.ProviderEntry{Name: "nope"}

	if _, err := r.CreateSTT(entry); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateSTT error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateTTS(entry); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateTTS error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateLLM(entry); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateLLM error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.RegisterSTT("mock", func(config.ProviderEntry) (stt.Provider, error) {
		return &sttmock.Provider{}, nil
	})
	r.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})
	r.RegisterLLM("mock", func(config.ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})

	if p, err := r.CreateSTT(config.ProviderEntry{Name: "mock"}); err != nil || p == nil {
		t.Errorf("CreateSTT = (%v, %v), want provider", p, err)
	}
	if p, err := r.CreateTTS(config.ProviderEntry{Name: "mock"}); err != nil || p == nil {
		t.Errorf("CreateTTS = (%v, %v), want provider", p, err)
	}
	if p, err := r.CreateLLM(config.ProviderEntry{Name: "mock"}); err != nil || p == nil {
		t.Errorf("CreateLLM = (%v, %v), want provider", p, err)
	}
}

func TestRegistry_FactoryReceivesEntry(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	var got config.ProviderEntry
	r.RegisterLLM("probe", func(e config.ProviderEntry) (llm.Provider, error) {
		got = e
		return &llmmock.Provider{}, nil
	})

	entry := config.ProviderEntry{Name: "probe", APIKey: "k", Model: "m"}
	if _, err := r.CreateLLM(entry); err != nil {
		t.Fatalf("CreateLLM error: %v", err)
	}
	if got.APIKey != "k" || got.Model != "m" {
		t.Errorf("factory received %+v, want the full entry", got)
	}
}
