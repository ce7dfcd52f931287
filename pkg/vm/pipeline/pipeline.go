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

// Package pipeline drives operator chains. A Pipeline couples a source
// half to a sink half and steps chunks between them without blocking in
// either; the Scheduler parks pipelines that cannot progress and reruns
// them when an operator observer fires.
package pipeline

import (
	"fmt"

	"github.com/dupen01/starrocks/pkg/vm"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// Pipeline is one driver unit: a source-half head feeding a sink-half
// tail on a single query process. Run never blocks; when neither half
// can move it reports parked and expects a wake before the next run.
type Pipeline struct {
	proc *process.Process
	head vm.Operator
	tail vm.Operator

	closed bool
}

// New couples head and tail on proc. Both halves stay owned by the
// caller; Close releases them exactly once.
func New(proc *process.Process, head, tail vm.Operator) *Pipeline {
	return &Pipeline{proc: proc, head: head, tail: tail}
}

// Prepare attaches the driver's wake handle to every observing half,
// then prepares both operators. A nil wake runs the pipeline
// standalone.
func (p *Pipeline) Prepare(wake func()) error {
	if wake != nil {
		if oa, ok := p.head.(vm.ObserverAttacher); ok {
			oa.AttachObserver(wake)
		}
		if oa, ok := p.tail.(vm.ObserverAttacher); ok {
			oa.AttachObserver(wake)
		}
	}
	if err := p.head.Prepare(p.proc); err != nil {
		return err
	}
	return p.tail.Prepare(p.proc)
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("%s->%s", p.head.String(), p.tail.String())
}

type stepResult int

const (
	stepProgress stepResult = iota
	stepBlocked
	stepDone
)

// step moves at most one chunk. Order matters: a finished tail cuts the
// head short before any pull, a finished head seals the tail before the
// blocked check, so forced finishes propagate in one step.
func (p *Pipeline) step() (stepResult, error) {
	if _, done := vm.CancelCheck(p.proc); done {
		return stepDone, p.proc.QueryCancelError()
	}
	if p.tail.IsFinished() {
		if err := p.head.SetFinished(p.proc); err != nil {
			return stepDone, err
		}
		return stepDone, nil
	}
	if p.head.IsFinished() {
		if err := p.tail.SetFinishing(p.proc); err != nil {
			return stepDone, err
		}
		return stepDone, nil
	}
	if p.head.HasOutput() && p.tail.NeedInput() {
		chk, err := p.head.PullChunk(p.proc)
		if err != nil {
			return stepDone, err
		}
		if chk != nil {
			err = p.tail.PushChunk(p.proc, chk)
			chk.Clean(p.proc.Mp())
			if err != nil {
				return stepDone, err
			}
		}
		return stepProgress, nil
	}
	return stepBlocked, nil
}

// Run steps until the pipeline completes or parks. done=false means
// parked: some half is waiting on upstream state and the attached
// observer will fire when it changes. Errors force-finish both halves
// so dependents sharing state with them unblock.
func (p *Pipeline) Run() (done bool, err error) {
	for {
		res, err := p.step()
		if err != nil {
			p.abort()
			return true, err
		}
		switch res {
		case stepProgress:
		case stepBlocked:
			return false, nil
		case stepDone:
			return true, nil
		}
	}
}

func (p *Pipeline) abort() {
	_ = p.head.SetFinished(p.proc)
	_ = p.tail.SetFinished(p.proc)
}

// Close releases both halves. Safe to call more than once.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.head.Close(p.proc)
	if err2 := p.tail.Close(p.proc); err == nil {
		err = err2
	}
	return err
}
