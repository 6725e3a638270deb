// Package objcache tracks the rule objects that mutators reference while a
// recompute is running.
//
// A Cache has three parts. Pending references have been registered but not
// fetched. The resolved map holds every object fetched so far, plus the ids
// that failed, so no id is requested from the provider twice. The applied list
// records which references were folded into the character, for auditing.
//
// A cache belongs to one recompute. The pipeline moves the resolved map from
// round to round with TakeResolved and Merge and throws everything away when
// the recompute ends.
package objcache
