/*
Package resilience provides the circuit breakers guarding outbound fetches.

A Breaker moves between three states:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

A Group keeps one breaker per host, bounded by an LRU, so a site that keeps
failing is cut off without affecting script ajax calls to other sites.

	group, _ := resilience.NewGroup(resilience.Settings{
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
	}, 0)
	err := group.Get(host).Do(func() error {
		return send()
	})

Caller cancellation is not counted as a failure unless IsSuccessful says
otherwise.
*/
package resilience
