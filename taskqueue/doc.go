// Package taskqueue is a small Redis-backed background task queue.
//
// A Broker enqueues JSON task messages onto Redis lists and reads stored
// results. A Worker consumes those lists with bounded concurrency and
// answers control broadcasts. An Inspector sends those broadcasts and
// collects the replies, which is how the readiness worker check discovers
// live workers.
//
// Key layout, for namespace ns:
//
//	<ns>:queue:<queue>   pending task messages (RPUSH / BLPOP)
//	<ns>:result:<id>     task result, expires after the result TTL
//	<ns>:control         control broadcasts (PUBLISH / SUBSCRIBE)
//	<ns>:reply:<uuid>    replies to a single broadcast
package taskqueue
