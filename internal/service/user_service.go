package service

import (
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
)

type UserService struct {
	UserRepo    *repository.UserRepository
	ProfileRepo *repository.ProfileRepository
}

func NewUserService(userRepo *repository.UserRepository, profileRepo *repository.ProfileRepository) *UserService {
	return &UserService{UserRepo: userRepo, ProfileRepo: profileRepo}
}

// ProfileView 用户资料聚合视图
type ProfileView struct {
	User    *model.User           `json:"user"`
	Profile *model.StudentProfile `json:"profile"`
}

func (s *UserService) Profile(userID uint) (*ProfileView, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.ProfileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Profile: profile}, nil
}

type ProfileUpdateInput struct {
	Name     string `json:"name"`
	College  string `json:"college"`
	Branch   string `json:"branch"`
	Semester int    `json:"semester"`
	RollNo   string `json:"rollNo"`
}

func (s *UserService) UpdateProfile(userID uint, input ProfileUpdateInput) (*ProfileView, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		user.Name = input.Name
		if err := s.UserRepo.Update(user); err != nil {
			return nil, err
		}
	}

	profile, err := s.ProfileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if input.College != "" {
		profile.College = input.College
	}
	if input.Branch != "" {
		profile.Branch = input.Branch
	}
	if input.Semester > 0 {
		profile.Semester = input.Semester
	}
	if input.RollNo != "" {
		profile.RollNo = input.RollNo
	}
	if err := s.ProfileRepo.Update(profile); err != nil {
		return nil, err
	}

	return &ProfileView{User: user, Profile: profile}, nil
}
