// Package global implements the OSPF "global"/oracle coordinator mode
// (spec §4.3, component F): rather than exchanging neighbor messages, it
// computes every router's area routing table directly from the full
// topology and overwrites each router's table in one step. Zero events
// are produced; convergence is instantaneous by construction.
package global

import "github.com/routesim/netsim/pkg/ospf"
import "github.com/routesim/netsim/pkg/id"

// AreaInput is one area's full set of link-state advertisements, as they
// would eventually be flooded to every router in the area under the
// local/distributed coordinator.
type AreaInput struct {
	Area         ospf.Area
	RouterLSAs   []ospf.LSA
	SummaryLSAs  []ospf.LSA
	ExternalLSAs []ospf.LSA
}

// Compute builds, for every router in routers and every area in areas, a
// fully populated ospf.AreaDB rooted at that router — the same result
// the distributed coordinator converges to, without simulating any
// message exchange.
func Compute(routers []id.RouterID, areas []AreaInput) map[id.RouterID]map[ospf.Area]*ospf.AreaDB {
	result := make(map[id.RouterID]map[ospf.Area]*ospf.AreaDB, len(routers))
	for _, r := range routers {
		result[r] = make(map[ospf.Area]*ospf.AreaDB, len(areas))
	}
	for _, input := range areas {
		for _, r := range routers {
			db := ospf.NewAreaDB(r)
			for _, lsa := range input.RouterLSAs {
				db.Insert(lsa)
			}
			for _, lsa := range input.SummaryLSAs {
				db.Insert(lsa)
			}
			for _, lsa := range input.ExternalLSAs {
				db.Insert(lsa)
			}
			result[r][input.Area] = db
		}
	}
	return result
}
