/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package passes

// DisjointSet is a union-find over the elements 0 .. n-1, with path
// compression and union by size.
type DisjointSet struct {
    parent []int
    size   []int
}

func NewDisjointSet(n int) *DisjointSet {
    ret := &DisjointSet {
        parent : make([]int, n),
        size   : make([]int, n),
    }
    for i := range ret.parent {
        ret.parent[i] = i
        ret.size[i] = 1
    }
    return ret
}

func (self *DisjointSet) Len() int {
    return len(self.parent)
}

func (self *DisjointSet) Find(x int) int {
    for self.parent[x] != x {
        self.parent[x] = self.parent[self.parent[x]]
        x = self.parent[x]
    }
    return x
}

// Union merges the sets of a and b, it returns false if they were already
// in the same set.
func (self *DisjointSet) Union(a int, b int) bool {
    x, y := self.Find(a), self.Find(b)
    if x == y {
        return false
    }

    /* attach the smaller tree below the larger one */
    if self.size[x] < self.size[y] {
        x, y = y, x
    }

    /* merge the sizes */
    self.parent[y] = x
    self.size[x] += self.size[y]
    return true
}

func (self *DisjointSet) Same(a int, b int) bool {
    return self.Find(a) == self.Find(b)
}

// Classes returns every set, ordered by its first element. Elements within a
// set are in ascending order, so the result only depends on insertion order.
func (self *DisjointSet) Classes() [][]int {
    var ret [][]int
    idx := make(map[int]int)

    /* visit every element in insertion order */
    for i := range self.parent {
        r := self.Find(i)
        k, ok := idx[r]

        /* first time seeing this set */
        if !ok {
            k = len(ret)
            idx[r] = k
            ret = append(ret, nil)
        }

        /* add to the set */
        ret[k] = append(ret[k], i)
    }

    /* all done */
    return ret
}
