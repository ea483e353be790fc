package utils

//run redis
//docker run -p 6379:6379 -d redis

//run mysql
//docker run -p 3306:3306 -e MYSQL_ROOT_PASSWORD=secret -e MYSQL_DATABASE=study_chatbot_db -d mysql:8

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
