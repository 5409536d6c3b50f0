package ssl

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

//Task is a unit of work for a Pool.
type Task interface {
	Run()
}

//Pool runs tasks on a bounded number of goroutines.
//A panic of a task is kept and raised again by WaitAll.
type Pool struct {
	workers *ants.Pool
	wg      sync.WaitGroup

	panicMu    sync.Mutex
	panicValue interface{}
}

//NewPool creates a pool of threadsNum goroutines.
func NewPool(threadsNum int) *Pool {
	p := &Pool{}
	workers, err := ants.NewPool(threadsNum, ants.WithPanicHandler(p.taskPanicked))
	HandleError(err)
	p.workers = workers
	return p
}

//taskPanicked runs on the worker after the panic of a task is recovered.
func (p *Pool) taskPanicked(r interface{}) {
	p.panicMu.Lock()
	if p.panicValue == nil {
		p.panicValue = r
	}
	p.panicMu.Unlock()
	p.wg.Done()
}

//AddTask schedules a task.
func (p *Pool) AddTask(task Task) {
	p.wg.Add(1)
	err := p.workers.Submit(func() {
		task.Run()
		// a panicking task is counted down by taskPanicked
		p.wg.Done()
	})
	if err != nil {
		p.wg.Done()
		HandleError(err)
	}
}

//WaitAll blocks until every scheduled task is done and releases the goroutines.
//It panics with the first panic of a task.
func (p *Pool) WaitAll() {
	p.wg.Wait()
	p.workers.Release()

	p.panicMu.Lock()
	r := p.panicValue
	p.panicMu.Unlock()
	if r != nil {
		panic(r)
	}
}

//TaskFindBestSplit searches one column and stores the result into its slot.
type TaskFindBestSplit struct {
	result        []*SplitCandidate
	slot          int
	bestSplitFunc func(slot int) *SplitCandidate
}

func (t *TaskFindBestSplit) Run() {
	t.result[t.slot] = t.bestSplitFunc(t.slot)
}
