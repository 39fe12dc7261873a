package comm

// CommType identifies the kind of communication or computation operation a
// trace record describes.
type CommType string

const (
	TypeBroadcast     CommType = "broadcast"
	TypeAllReduce     CommType = "all_reduce"
	TypeAllGather     CommType = "all_gather"
	TypeReduceScatter CommType = "reduce_scatter"
	TypeAllToAll      CommType = "all_to_all"
	TypeIsend         CommType = "isend"
	TypeIrecv         CommType = "irecv"
	TypeBarrier       CommType = "barrier"
	TypeComputation   CommType = "computation"

	// TypeEpochEnd is the sentinel closing one training iteration.
	TypeEpochEnd CommType = "epoch_end"
)

// CommGroup identifies the process subset an operation executed over.
type CommGroup string

const (
	GroupAll CommGroup = "all"
	GroupTp  CommGroup = "tp_group"
	GroupDp  CommGroup = "dp_group"
	GroupPp  CommGroup = "pp_group"
	GroupEp  CommGroup = "ep_group"
)
