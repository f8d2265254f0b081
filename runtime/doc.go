// Package runtime is the thread-safe entry point of the module.
//
// A Core wraps one backend engine. Mocs decoded through it derive Models,
// which pair a freely shareable static view with a lock-guarded dynamic
// view: any number of ReadDynamic callbacks run concurrently, WriteDynamic
// runs exclusively. The callback scope is the lock scope, so state obtained
// inside must not be retained outside.
package runtime
