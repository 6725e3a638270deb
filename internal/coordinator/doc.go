/*
Package coordinator keeps one character's published sheet current while edits
and background lookups arrive concurrently.

# Published and Working

The coordinator owns two aggregates. The published aggregate is complete and
readable by any number of goroutines at any time; it is never mutated after it
has been published. The working aggregate exists only while a drain is in
flight and doubles as the single-flight token: whoever holds it is the only
goroutine allowed to run the recompute pipeline for the character.

# Draining

SubmitEdit and MergeBackgroundResult append to an ordered queue and attempt a
drain. A drain claims the whole queue, clones the published aggregate into the
working slot and folds every queued operation into it in submission order.
When any edit was structural the full pipeline runs, otherwise only the cheap
refresh. The result is published and the drain immediately tries again, so
operations that arrived mid-recompute are picked up by exactly one follow-up
pass.

A fatal pipeline error discards the working copy together with every
operation folded into it, structural or not. The published aggregate stays as
it was and the error is reported by Err until the next successful publish.

New publishes the aggregate it is given without deriving it. Callers that
start from persistent data alone call Invalidate before reading Published.
*/
package coordinator
