package memstore

import (
	"context"
	"testing"

	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store/storetest"
)

func TestMemStore_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Harness {
		s := New()
		return storetest.Harness{
			Store: s,
			SeedAccount: func(ctx context.Context, a *model.Account) error {
				s.AddAccount(a)
				return nil
			},
		}
	})
}
