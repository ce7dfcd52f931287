// Copyright 2022 The StarRocks Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	queue "github.com/yireyun/go-queue"

	"github.com/dupen01/starrocks/pkg/logutil"
)

// task states. wake and the runner race on these; every transition is a
// CAS so a wake can never be lost between a park decision and the store.
const (
	taskIdle int32 = iota
	taskQueued
	taskRunning
	taskRunningDirty
	taskDone
)

type task struct {
	pipe  *Pipeline
	sched *Scheduler
	state atomic.Int32
}

// wake moves a parked task back onto the ready queue. Safe from any
// goroutine; operator notify callbacks land here.
func (t *task) wake() {
	for {
		switch t.state.Load() {
		case taskIdle:
			if t.state.CompareAndSwap(taskIdle, taskQueued) {
				t.sched.enqueue(t)
				return
			}
		case taskRunning:
			if t.state.CompareAndSwap(taskRunning, taskRunningDirty) {
				return
			}
		default:
			// queued, dirty or done: the wake is already covered
			return
		}
	}
}

func (t *task) run() {
	if !t.state.CompareAndSwap(taskQueued, taskRunning) {
		return
	}
	for {
		done, err := t.pipe.Run()
		if err != nil {
			t.sched.recordErr(t.pipe, err)
			done = true
		}
		if done {
			t.state.Store(taskDone)
			t.sched.wg.Done()
			return
		}
		// parked; a wake that raced the park left the state dirty
		if t.state.CompareAndSwap(taskRunning, taskIdle) {
			return
		}
		t.state.Store(taskRunning)
	}
}

// Scheduler runs pipelines on a bounded worker pool. Ready tasks queue
// on a lock-free ring; a dispatcher feeds them to workers. A parked
// pipeline consumes no worker until its observer wakes it.
type Scheduler struct {
	pool   *ants.Pool
	ready  *queue.EsQueue
	notify chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	wg     sync.WaitGroup
	loopWg sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// NewScheduler sizes the worker pool and the ready ring.
func NewScheduler(workers int, queueCap uint32) (*Scheduler, error) {
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v interface{}) {
		logutil.Errorf("pipeline worker panic: %v", v)
		panic(v)
	}))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		pool:   pool,
		ready:  queue.NewQueue(queueCap),
		notify: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	s.loopWg.Add(1)
	go s.dispatchLoop()
	return s, nil
}

// Spawn registers pipelines and queues their first run. Each pipeline
// is prepared with its task's wake handle so parked drivers rerun when
// their operators notify.
func (s *Scheduler) Spawn(pipes ...*Pipeline) error {
	for _, p := range pipes {
		t := &task{pipe: p, sched: s}
		if err := p.Prepare(t.wake); err != nil {
			return err
		}
		s.wg.Add(1)
		t.state.Store(taskQueued)
		s.enqueue(t)
	}
	return nil
}

func (s *Scheduler) enqueue(t *task) {
	for {
		if ok, _ := s.ready.Put(t); ok {
			break
		}
		runtime.Gosched()
	}
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Scheduler) dispatchLoop() {
	defer s.loopWg.Done()
	for {
		if val, ok, _ := s.ready.Get(); ok {
			t := val.(*task)
			if err := s.pool.Submit(t.run); err != nil {
				s.recordErr(t.pipe, err)
				t.state.Store(taskDone)
				s.wg.Done()
			}
			continue
		}
		select {
		case <-s.notify:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) recordErr(p *Pipeline, err error) {
	logutil.Errorf("query %s pipeline %s failed: %v", p.proc.QueryId(), p, err)
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

// Wait blocks until every spawned pipeline completes and reports the
// first failure. Completed pipelines stay open; the owner closes them
// after collecting results.
func (s *Scheduler) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return nil
	}
	return s.errs[0]
}

// Stop shuts the dispatcher and worker pool down. Call after Wait;
// tasks still queued are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.loopWg.Wait()
	s.pool.Release()
}
