package docsbot

import (
	"context"
	"fmt"
	"hash"
	"hash/crc32"
	"math"
	"sync"
)

// conversationID holds the elements identifying a conversation: the channel and the timestamp of
// the thread (or the message when not in a thread)
type conversationID struct {
	channelID string
	timestamp string
}

// String returns a friendly representation of a conversationID
func (c conversationID) String() string {
	return fmt.Sprintf("%s/%s", c.channelID, c.timestamp)
}

// interactionProcessor processes interactions routed to a partition
type interactionProcessor func(in *interaction)

type partitionRouter struct {
	// Logger
	log SLogger

	// interactionQueues with partition keyed by the hash of the conversation id
	// so that interactions of a conversation are handled by the same worker
	// therefore ensuring ordered processing of those interactions
	interactionQueues []chan *interaction

	// workers tracks running partition workers
	workers sync.WaitGroup

	// hash function to direct interaction processing to partitions
	hasher   hash.Hash32
	hashMask int

	*instrumenter
}

func newPartitionRouter(partitionCount int, queueBufferSize int, log SLogger, instrumenter *instrumenter) (pr *partitionRouter, err error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("A partition router can only work with a partitionCount that is a power of two but was [%d]", partitionCount)
	}

	pr = new(partitionRouter)
	pr.interactionQueues = make([]chan *interaction, partitionCount)
	for i := range pr.interactionQueues {
		pr.interactionQueues[i] = make(chan *interaction, queueBufferSize)
	}
	pr.hasher = crc32.NewIEEE()
	pr.hashMask = hashMask(partitionCount)
	pr.log = log
	pr.instrumenter = instrumenter

	return pr, nil
}

// start starts one worker per partition, each processing the interactions of its queue in order
func (pr *partitionRouter) start(process interactionProcessor) {
	for i, q := range pr.interactionQueues {
		pr.workers.Add(1)

		go func(partition int, queue chan *interaction) {
			defer pr.workers.Done()

			for in := range queue {
				process(in)
			}

			pr.log.Debugf("Worker for partition [%d] terminated", partition)
		}(i, q)
	}
}

// stop closes all partition queues and waits for workers to finish processing queued interactions.
// No interaction may be routed once stop has been called
func (pr *partitionRouter) stop() {
	for _, q := range pr.interactionQueues {
		close(q)
	}

	pr.workers.Wait()
}

// route routes the interaction processing to the partition of its conversation to ensure
// that all interactions of a conversation are processed in order
func (pr *partitionRouter) route(in *interaction) {
	partition := pr.partitionForConversation(in.conversation)

	pr.log.Debugf("Dispatching interaction [%s] of conversation [%s] to partition [%d]", in.id, in.conversation, partition)
	d := measure(func() {
		pr.interactionQueues[partition] <- in
	})

	pr.coreMetrics.dispatchLatencyMillis.Record(context.Background(), d.Milliseconds(), pr.coreMetrics.defaultAttributes)
}

// partitionForConversation returns the partition index for a given conversation
func (pr *partitionRouter) partitionForConversation(c conversationID) (partition int) {
	pr.hasher.Reset()
	pr.hasher.Write([]byte(c.channelID))
	pr.hasher.Write([]byte(c.timestamp))
	res := pr.hasher.Sum32()

	// Keep only the rightmost bits so we have a max equal to the partition count
	return int(res) & pr.hashMask
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val != 0) && (val&(val-1)) == 0
}

// hashMask builds a mask for a partitionCount (which should be a power of two) to get a hash value
// that is in the range of the number of partitions we have
func hashMask(partitionCount int) int {
	maskSize := int(math.Log2(float64(partitionCount)))
	mask := 0
	for i := 0; i < maskSize; i++ {
		mask = mask<<1 | 1
	}

	return mask
}
