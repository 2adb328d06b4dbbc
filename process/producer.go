package process

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kbukum/procspawn/logger"
)

// ProducerEnv is set in the environment of an async producer child to the
// name of the producer it runs.
const ProducerEnv = "PROCSPAWN_PRODUCER"

// Exit codes of a producer child.
const (
	producerOK      = 0
	producerFailed  = 1
	producerUnknown = 2
)

// ProducerFunc writes a producer's output to w. data is the Async's Data.
// The function may close w itself; it is closed when the child exits either
// way.
type ProducerFunc func(w *os.File, data []byte) error

var (
	producersMu sync.RWMutex
	producers   = map[string]ProducerFunc{}
)

// RegisterProducer makes fn available to StartAsync under name. It must run
// in both parent and child, so call it from an init function or before
// DispatchProducer. Registering a name twice panics.
func RegisterProducer(name string, fn ProducerFunc) {
	producersMu.Lock()
	defer producersMu.Unlock()
	if _, dup := producers[name]; dup {
		panic(fmt.Sprintf("process: producer %q registered twice", name))
	}
	producers[name] = fn
}

func lookupProducer(name string) ProducerFunc {
	producersMu.RLock()
	defer producersMu.RUnlock()
	return producers[name]
}

// DispatchProducer turns the current process into an async producer when it
// was started by StartAsync, and never returns in that case. Otherwise it
// returns immediately. Call it first in main or TestMain.
func DispatchProducer() {
	name, ok := os.LookupEnv(ProducerEnv)
	if !ok {
		return
	}
	_ = os.Unsetenv(ProducerEnv)
	os.Exit(runProducer(name, os.Stdin, os.Stdout))
}

func runProducer(name string, in io.Reader, out *os.File) int {
	log := logger.Get(component).WithFields(logger.Fields(logger.FieldProducer, name))
	fn := lookupProducer(name)
	if fn == nil {
		log.Error("producer not registered")
		return producerUnknown
	}
	data, err := io.ReadAll(in)
	if err != nil {
		log.Error("reading producer data", logger.ErrorFields("read", err))
		return producerFailed
	}
	if err := fn(out, data); err != nil {
		log.Error("producer failed", logger.ErrorFields("produce", err))
		return producerFailed
	}
	return producerOK
}
