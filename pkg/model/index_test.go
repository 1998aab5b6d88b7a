package model_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-otsuka/wren/pkg/model"
)

func TestNewRunID(t *testing.T) {
	id := model.NewRunID()
	gt.V(t, len(id)).Equal(32)
	gt.V(t, strings.Contains(string(id), "-")).Equal(false)

	other := model.NewRunID()
	gt.V(t, id == other).Equal(false)
}
