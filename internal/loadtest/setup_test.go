package loadtest

import (
	"os"
	"testing"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
