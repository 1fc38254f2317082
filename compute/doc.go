// Package compute defines the object model of the compute-engine runtime.
//
// An Engine is the single owner of device resources. It creates Buffers,
// kernels and composite commands. Every command is submitted to a
// CommandQueue and returns an Event; the Event is the only synchronization
// signal between the host and the device:
//
//	k, _ := e.GetKernel("score_dot_product", compute.WithOptions(opts))
//	_ = k.SetArg(0, width)
//	_ = k.SetBufferArg(1, query)
//	ev, err := k.Submit(compute.DefaultQueue)
//	if err != nil {
//	    return err
//	}
//	if _, err := ev.Wait(); err != nil {
//	    return err
//	}
//
// Configuration errors (unbound arguments, malformed ranges, binding misuse)
// are returned synchronously by the call that violates the contract.
// Execution failures are reported through Event.Wait.
//
// Commands submitted to the same queue complete in submission order.
// CommandsSequence chains its children through their events, and
// CommandsParallel joins them with a raise-event marker. Queues are not
// ordered relative to each other unless an Event is passed as a dependency.
//
// Concurrent writers to the same BufferBinding are a caller error and are
// not detected.
package compute
