package memstore

import (
	"testing"

	"github.com/leaflove/care-service/internal/store"
	"github.com/leaflove/care-service/internal/store/storetest"
)

func TestMemStore_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}
