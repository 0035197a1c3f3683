package chat

import "fmt"

// LoadDirectory перечитывает справочник коллег (все пользователи, кроме
// владельца) с их статусами присутствия и ролями. При ошибке выборки
// прежний справочник остается нетронутым.
func (s *Store) LoadDirectory() error {
	users, err := s.backend.Directory(s.userID)
	if err != nil {
		s.report("Не удалось загрузить список сотрудников.", err)
		return fmt.Errorf("выборка справочника: %w", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	roles, err := s.backend.RolesForUsers(ids)
	if err != nil {
		s.report("Не удалось загрузить список сотрудников.", err)
		return fmt.Errorf("выборка ролей справочника: %w", err)
	}
	for i := range users {
		users[i].Role = primaryRole(roles[users[i].ID])
	}
	s.do(func() {
		s.directory = users
		s.changed()
	})
	return nil
}
