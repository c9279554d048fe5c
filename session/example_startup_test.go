package session_test

import (
	"fmt"
	"time"

	"github.com/lattice-fix/fixengine/arena"
	"github.com/lattice-fix/fixengine/fixmsg"
	"github.com/lattice-fix/fixengine/session"
	"github.com/lattice-fix/fixengine/store"
)

type exampleSender struct{}

func (exampleSender) Send(buf []byte) error { return nil }

// ExampleSession_startup shows the one-time setup a dedicated session I/O
// thread performs before it starts driving Session.HandleRaw/Tick in a
// loop: pin the thread to the core the session's identity hashes to, warm
// the parser's instruction cache, and give the session a huge-page-backed
// heap for its structural-index/builder scratch space.
func ExampleSession_startup() {
	sessionID := "BUYSIDE/SELLSIDE"

	if err := session.PinCurrentThread(sessionID, nil); err != nil {
		fmt.Println("pin:", err)
		return
	}
	if err := fixmsg.WarmInstructionCache(64); err != nil {
		fmt.Println("warm:", err)
		return
	}
	heap, err := arena.NewHeapHugePages(arena.DefaultHeapSize)
	if err != nil {
		fmt.Println("heap:", err)
		return
	}
	defer heap.Close()

	s := session.New(session.Config{
		BeginString:  "FIX.4.4",
		SenderCompID: "BUYSIDE",
		TargetCompID: "SELLSIDE",
		HeartBtInt:   30 * time.Second,
		Store:        store.NewMemory(),
		Sender:       exampleSender{},
		SessionID:    sessionID,
	})

	if err := s.Connect(time.Now()); err != nil {
		fmt.Println("connect:", err)
		return
	}
	fmt.Println(s.State())
	// Output: LogonSent
}
