package world

import (
	"github.com/annel0/voxelworld/internal/vec"
)

// ActionStore журнал правок по чанкам: локальная позиция -> последняя правка.
// Переживает выгрузку чанка, чтобы повторная загрузка восстановила содержимое.
type ActionStore struct {
	chunks map[vec.Vec3]map[vec.Vec3]BlockAction
	count  int
}

// NewActionStore создаёт пустой журнал
func NewActionStore() *ActionStore {
	return &ActionStore{chunks: make(map[vec.Vec3]map[vec.Vec3]BlockAction)}
}

// Insert записывает правку по мировым координатам, заменяя предыдущую
func (s *ActionStore) Insert(pos vec.Vec3, action BlockAction) {
	chunk := pos.ToChunkCoords()
	actions, ok := s.chunks[chunk]
	if !ok {
		actions = make(map[vec.Vec3]BlockAction)
		s.chunks[chunk] = actions
	}
	local := pos.LocalInChunk()
	if _, exists := actions[local]; !exists {
		s.count++
	}
	actions[local] = action
}

// Actions возвращает правки чанка (не копия, только для чтения)
func (s *ActionStore) Actions(chunk vec.Vec3) map[vec.Vec3]BlockAction {
	return s.chunks[chunk]
}

// Replay применяет правки чанка к сгенерированному содержимому.
// Безопасен для параллельного вызова, пока журнал не изменяется.
func (s *ActionStore) Replay(chunk vec.Vec3, c *Chunk) {
	for local, action := range s.chunks[chunk] {
		c.ApplyUnchecked(local, action)
	}
}

// Len общее число записанных позиций
func (s *ActionStore) Len() int {
	return s.count
}

// ChunkCount число чанков с правками
func (s *ActionStore) ChunkCount() int {
	return len(s.chunks)
}
