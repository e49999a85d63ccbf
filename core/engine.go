// Copyright (c) 2022 The rcproxy Authors
// Copyright (c) 2019 Andy Pan
// Copyright (c) 2018 Joshua J Baker
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux
// +build linux

package core

import (
	"sync"
	"sync/atomic"

	"redikv/core/internal/netpoll"
	"redikv/core/pkg/logging"
)

type engine struct {
	ln           *listener      // the listener for accepting new connections
	el           *eventloop     // the event-loop
	wg           sync.WaitGroup // event-loop close WaitGroup
	opts         *Options       // options with engine
	once         sync.Once      // make sure only signalShutdown once
	cond         *sync.Cond     // shutdown signaler
	eventHandler EventHandler   // user eventHandler
	inShutdown   int32          // whether the engine is in shutdown
}

func (eng *engine) isInShutdown() bool {
	return atomic.LoadInt32(&eng.inShutdown) == 1
}

// waitForShutdown waits for a signal to shut down.
func (eng *engine) waitForShutdown() {
	eng.cond.L.Lock()
	eng.cond.Wait()
	eng.cond.L.Unlock()
}

// signalShutdown signals the engine to shut down.
func (eng *engine) signalShutdown() {
	eng.once.Do(func() {
		eng.cond.L.Lock()
		eng.cond.Signal()
		eng.cond.L.Unlock()
	})
}

func (eng *engine) startEventLoop() {
	eng.wg.Add(1)
	go func() {
		if err := eng.el.run(); err != nil {
			logging.Errorf("event-loop stopped with error: %v", err)
		}
		eng.wg.Done()
	}()
}

func (eng *engine) closeEventLoops() {
	eng.el.closeAllSockets()
	_ = eng.el.poller.Close()
}

func (eng *engine) start() (err error) {
	ln := eng.ln
	eng.ln = nil
	p, err := netpoll.OpenPoller()
	if err != nil {
		return err
	}

	el := &eventloop{
		ln:           ln,
		engine:       eng,
		poller:       p,
		buffer:       make([]byte, eng.opts.ReadBufferCap),
		connections:  make(map[int]*conn),
		eventHandler: eng.eventHandler,
	}
	if err = el.poller.AddRead(el.ln.packPollAttachment(el.accept)); err != nil {
		return err
	}
	eng.el = el

	eng.startEventLoop()
	return nil
}

func (eng *engine) stop(s Engine) {
	eng.waitForShutdown()

	eng.eventHandler.OnShutdown(s)

	// Wait on the loop to complete reading events.
	eng.wg.Wait()

	eng.closeEventLoops()

	atomic.StoreInt32(&eng.inShutdown, 1)
}

func serve(eventHandler EventHandler, listener *listener, options *Options, protoAddr string) error {
	eng := new(engine)
	eng.opts = options
	eng.eventHandler = eventHandler
	eng.ln = listener
	eng.cond = sync.NewCond(&sync.Mutex{})

	e := Engine{eng: eng}

	switch eng.eventHandler.OnBoot(e) {
	case None:
	case Shutdown:
		return nil
	}

	EngineGlobal = &e

	if err := eng.start(); err != nil {
		eng.closeEventLoops()
		logging.Errorf("engine is stopping with error: %v", err)
		return err
	}
	defer eng.stop(e)

	allEngines.Store(protoAddr, eng)

	return nil
}
