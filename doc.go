/*
Package slotring implements consistent hashing ring over a fixed number of
virtual slots.

The ring is split into V equally spaced slots. At construction every slot is
owned by one of R configured nodes in round-robin order, that is, slot s is
owned by the node at position s mod R. A key is mapped to a slot by its hash
modulo V, and then to the nearest present slot clockwise: the slot itself if
it is still on the ring, otherwise its closest successor, wrapping around to
the lowest slot when there is no successor.

When a node goes away all of its slots are deleted from the ring, but no slot
of another node is ever touched. Keys which were owned by the deleted node
fall to the next surviving slot, while all other keys keep their placement.

The ring is stored as an immutable AVL tree, so lookups are blocked only for
the tiny amount of time needed to read the current tree root, and they never
observe a node which is deleted only partially.
*/
package slotring
