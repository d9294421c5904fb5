package cron

import (
	"fmt"
	"sync"

	"inventory.GO/core/registry"
)

// Job is a named schedule entry; Run receives the --args of cron:start.
type Job struct {
	Schedule string
	Run      func(...string)
}

// jobSet is stored once under registry.KeyRegistryCron. The registry lock
// marks the set frozen after the scheduler has read it.
type jobSet struct {
	mu     sync.Mutex
	byName map[string]Job
}

var installSet sync.Once

func registered() *jobSet {
	installSet.Do(func() {
		registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, &jobSet{byName: map[string]Job{}})
	})
	v, _ := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryCron)
	return v.(*jobSet)
}

func frozen() bool {
	return registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron)
}

// Register adds a job under name. It panics once Jobs has been called or
// when name is already taken.
func Register(name, schedule string, run func(...string)) {
	set := registered()
	set.mu.Lock()
	defer set.mu.Unlock()
	switch _, taken := set.byName[name]; {
	case frozen():
		panic(fmt.Sprintf("cron: register %q after the scheduler read the job list", name))
	case taken:
		panic(fmt.Sprintf("cron: job %q registered twice", name))
	}
	set.byName[name] = Job{Schedule: schedule, Run: run}
}

// Unregister drops a job and thaws the set. Tests only.
func Unregister(name string) {
	set := registered()
	set.mu.Lock()
	defer set.mu.Unlock()
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryCron)
	delete(set.byName, name)
}

// Jobs snapshots the registered jobs and freezes the set.
func Jobs() map[string]Job {
	set := registered()
	set.mu.Lock()
	defer set.mu.Unlock()
	snapshot := make(map[string]Job, len(set.byName))
	for name, j := range set.byName {
		snapshot[name] = j
	}
	if !frozen() {
		registry.GlobalRegistry.Lock(registry.KeyRegistryCron)
	}
	return snapshot
}
